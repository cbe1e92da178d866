package streambind

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"

	"github.com/matryer/is"
)

func TestSubscribe_OrderingAndSingleCompletion(t *testing.T) {
	is := is.New(t)

	owner := &testOwner{name: "a"}

	ints := []int{}
	completions := 0
	done := make(chan struct{})

	Subscribe(context.Background(), Produce([]int{1, 2, 3}), owner, func(_ context.Context, _ context.CancelCauseFunc, elem int, _ uint64) {
		ints = append(ints, elem)
	}, func(err error) {
		is.NoErr(err)

		completions++
		close(done)
	})

	<-done

	is.Equal(ints, []int{1, 2, 3})
	is.Equal(completions, 1)

	runtime.KeepAlive(owner)
}

func TestSubscribe_FailureCompletion(t *testing.T) {
	is := is.New(t)

	owner := &testOwner{name: "a"}

	sub := Subscribe(context.Background(), Fail[int](errBoom), owner, nil, nil)

	<-sub.Done()

	is.True(errors.Is(sub.Err(), errBoom))

	runtime.KeepAlive(owner)
}

func TestSubscribe_RemainsRegisteredAfterCompletion(t *testing.T) {
	is := is.New(t)

	reg := NewRegistry()

	owner := &testOwner{name: "a"}

	sub := subscribe(context.Background(), reg, Produce([]int{1}), owner, false, nil, nil)

	<-sub.Done()

	is.True(Owned(reg, owner).Contains(sub))
	is.Equal(reg.Len(), 1)

	runtime.KeepAlive(owner)
}

func TestSubscribe_AutoRemoveOnCompletion(t *testing.T) {
	is := is.New(t)

	reg := NewRegistry()

	owner := &testOwner{name: "a"}

	keep := subscribe(context.Background(), reg, never(), owner, false, nil, nil)
	defer keep.Cancel()

	sub := subscribe(context.Background(), reg, Produce([]int{1}), owner, true, nil, nil)

	<-sub.Done()

	set := Owned(reg, owner)

	is.True(!set.Contains(sub))
	is.True(set.Contains(keep))

	runtime.KeepAlive(owner)
}

func TestSubscribe_AutoRemoveLastRetiresEntry(t *testing.T) {
	is := is.New(t)

	reg := NewRegistry()

	owner := &testOwner{name: "a"}

	sub := subscribe(context.Background(), reg, Produce([]int{1}), owner, true, nil, nil)

	<-sub.Done()

	is.True(Owned(reg, owner) == nil)
	is.Equal(reg.Len(), 0)

	runtime.KeepAlive(owner)
}

func TestSubscribe_CancelIdempotent(t *testing.T) {
	is := is.New(t)

	reg := NewRegistry()

	owner := &testOwner{name: "a"}

	completions := 0
	done := make(chan struct{})

	sub := subscribe(context.Background(), reg, never(), owner, false, nil, func(error) {
		completions++
		close(done)
	})

	sub.Cancel()
	sub.Cancel()

	<-done

	sub.Cancel()

	is.Equal(completions, 1)
	is.True(errors.Is(sub.Err(), ErrCanceled))

	runtime.KeepAlive(owner)
}

func TestSubscribe_CancelDoesNotUnregister(t *testing.T) {
	is := is.New(t)

	reg := NewRegistry()

	owner := &testOwner{name: "a"}

	sub := subscribe(context.Background(), reg, never(), owner, false, nil, nil)

	sub.Cancel()

	<-sub.Done()

	// explicit cancellation stops delivery but leaves bookkeeping in place
	is.True(Owned(reg, owner).Contains(sub))
	is.Equal(reg.Len(), 1)

	runtime.KeepAlive(owner)
}

func TestSubscribe_Stress(t *testing.T) {
	is := is.New(t)

	reg := NewRegistry()

	const owners = 1000

	all := make([]*testOwner, owners)
	for i := range all {
		all[i] = &testOwner{name: "stress"}
	}

	grp := sync.WaitGroup{}
	grp.Add(owners)

	for _, owner := range all {
		go func(owner *testOwner) {
			defer grp.Done()

			subscribe(context.Background(), reg, never(), owner, false, nil, nil)

			canceled := subscribe(context.Background(), reg, never(), owner, false, nil, nil)
			canceled.Cancel()
		}(owner)
	}

	grp.Wait()

	is.Equal(reg.Len(), owners)

	for _, owner := range all {
		set := Owned(reg, owner)

		is.Equal(set.Len(), 2)

		active := 0
		for _, sub := range set.Slice() {
			if sub.Err() == nil {
				active++
			}

			sub.Cancel()
		}

		is.True(active >= 1)
	}

	runtime.KeepAlive(all)
}
