package store

import "sync"

// Locks hands out one mutex per survey id. Entries live only while
// someone holds or waits for them.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*surveyLock
}

type surveyLock struct {
	sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{locks: map[string]*surveyLock{}}
}

// Lock blocks until the survey is free and returns the matching unlock.
func (l *Locks) Lock(surveyID string) (unlock func()) {
	l.mu.Lock()
	sl, ok := l.locks[surveyID]
	if !ok {
		sl = &surveyLock{}
		l.locks[surveyID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, surveyID)
		}
		l.mu.Unlock()
	}
}

// Len is the number of surveys currently locked or waited on.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
