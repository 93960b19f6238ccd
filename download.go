package streams

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// ProgressFunc is called after every segment that is downloaded with the
// number done so far and the total. A non-nil error aborts the download.
type ProgressFunc func(done, total int) error

func (s *Session) readyOrErr() (*Ready, error) {
	ready, ok := s.Ready()
	if !ok {
		return nil, fmt.Errorf("session is %s, not ready", s.State())
	}
	return ready, nil
}

// FetchSegment returns the bytes of the segment at index. Bytes are kept
// until the session is closed.
func (s *Session) FetchSegment(ctx context.Context, index int) ([]byte, error) {
	ready, err := s.readyOrErr()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ready.Segments) {
		return nil, fmt.Errorf("segment index %d out of range [0, %d)", index, len(ready.Segments))
	}

	s.mu.Lock()
	data, ok := s.segments[index]
	s.mu.Unlock()
	if ok {
		return data, nil
	}

	seg := ready.Segments[index]
	data, err = s.fetch(ctx, seg.URL, seg.ByteRange)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.segments[index] = data
	s.mu.Unlock()
	return data, nil
}

// FetchInit returns the bytes of the init segment, nil when there is none
func (s *Session) FetchInit(ctx context.Context) ([]byte, error) {
	ready, err := s.readyOrErr()
	if err != nil {
		return nil, err
	}
	if ready.Init == nil {
		return nil, nil
	}

	s.mu.Lock()
	data := s.init
	s.mu.Unlock()
	if data != nil {
		return data, nil
	}

	data, err = s.fetch(ctx, ready.Init.URL, ready.Init.ByteRange)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.init = data
	s.mu.Unlock()
	return data, nil
}

// Download fetches every segment with workers goroutines and then writes
// the init segment followed by all segments in index order to w. Failed
// segments go back on the queue until they exhaust the configured retries.
// workers of zero or less uses the configured count.
func (s *Session) Download(ctx context.Context, w io.Writer, workers int, progress ProgressFunc) error {
	ready, err := s.readyOrErr()
	if err != nil {
		return err
	}

	cfg := s.resolver.cfg.Download
	if workers <= 0 {
		workers = cfg.Workers
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := len(ready.Segments)
	indexes := make([]int, total)
	for i := range indexes {
		indexes[i] = i
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		attempts = make(map[int]int)
		done     int
		firstErr error
	)

	abort := func(err error) {
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				if len(indexes) == 0 || firstErr != nil {
					mu.Unlock()
					return
				}
				idx := indexes[0]
				indexes = indexes[1:]
				mu.Unlock()

				_, err := s.FetchSegment(ctx, idx)

				mu.Lock()
				if err != nil {
					attempts[idx]++
					if attempts[idx] > cfg.Retries || ctx.Err() != nil {
						abort(err)
					} else {
						s.log.WithFields(logrus.Fields{"segment": idx, "attempt": attempts[idx]}).WithError(err).Warn("error downloading segment (returning to queue)")
						indexes = append(indexes, idx)
					}
					mu.Unlock()
					continue
				}

				done++
				if progress != nil {
					if err := progress(done, total); err != nil {
						abort(fmt.Errorf("progress func error: %w", err))
					}
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	initData, err := s.FetchInit(ctx)
	if err != nil {
		return err
	}
	if initData != nil {
		if _, err := w.Write(initData); err != nil {
			return fmt.Errorf("writing init segment: %w", err)
		}
	}

	for i := 0; i < total; i++ {
		data, err := s.FetchSegment(ctx, i)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing segment %d: %w", i, err)
		}
	}
	return nil
}
