package weather

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/i474232898/weerlive-forecast/internal/logger"
)

// Fetch requests every location from p concurrently and merges the
// successful results in ascending location order, so the outcome does not
// depend on completion order. A failing location is logged and left out;
// Fetch itself never fails.
func Fetch(ctx context.Context, p Provider, locations []LocationID, log logger.Logger, rec Recorder) FetchResult {
	if log == nil {
		log = logger.Discard()
	}
	if rec == nil {
		rec = nopRecorder{}
	}

	type outcome struct {
		loc LocationID
		res FetchResult
		err error
	}

	outcomes := make([]outcome, len(locations))

	var wg sync.WaitGroup
	for i, loc := range locations {
		wg.Add(1)
		go func(i int, loc LocationID) {
			defer wg.Done()

			res, err := p.Fetch(ctx, loc)
			if err != nil && !errors.Is(err, ErrLocationUnavailable) {
				err = fmt.Errorf("%w: %s: %v", ErrLocationUnavailable, loc, err)
			}
			outcomes[i] = outcome{loc: loc, res: res, err: err}
		}(i, loc)
	}
	wg.Wait()

	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].loc < outcomes[j].loc
	})

	var merged FetchResult
	for _, o := range outcomes {
		rec.ObserveFetch(o.loc, o.err)
		if o.err != nil {
			log.WithField("location", string(o.loc)).Warnf("provider %s fetch failed: %v", p.Name(), o.err)
			merged.Unavailable = append(merged.Unavailable, o.loc)
			continue
		}
		merged.Live = append(merged.Live, o.res.Live...)
		merged.Daily = append(merged.Daily, o.res.Daily...)
		merged.Hourly = append(merged.Hourly, o.res.Hourly...)
		merged.Meta = append(merged.Meta, o.res.Meta...)
	}

	log.Infof("fetched %d of %d locations from %s", len(locations)-len(merged.Unavailable), len(locations), p.Name())
	return merged
}
