package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// ErrWorkerClosed is returned by Do after Close.
var ErrWorkerClosed = errors.New("db: writer closed")

const queueDepth = 256

type TxFn func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// Worker serializes every write transaction through one goroutine, so the
// node loops never contend for SQLite's single writer lock.
type Worker struct {
	db   *sql.DB
	jobs chan job
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:   db,
		jobs: make(chan job, queueDepth),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Close finishes the queued jobs and stops the worker. It is safe to call
// more than once.
func (w *Worker) Close() {
	w.once.Do(func() { close(w.quit) })
	<-w.done
}

func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)
	select {
	case <-w.quit:
		return ErrWorkerClosed
	default:
	}

	select {
	case w.jobs <- job{ctx: ctx, fn: fn, ch: ch}:
	case <-w.quit:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// A job whose caller gave up still runs; its result is dropped.
	select {
	case err := <-ch:
		return err
	case <-w.done:
		select {
		case err := <-ch:
			return err
		default:
			return ErrWorkerClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer close(w.done)
	for {
		select {
		case j := <-w.jobs:
			j.ch <- w.run(j)
		case <-w.quit:
			for {
				select {
				case j := <-w.jobs:
					j.ch <- w.run(j)
				default:
					return
				}
			}
		}
	}
}

func (w *Worker) run(j job) error {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	tx, err := w.db.BeginTx(j.ctx, nil)
	if err != nil {
		return err
	}
	if err := j.fn(j.ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
