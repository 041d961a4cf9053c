package bot

import (
	"errors"

	"github.com/jkamau/filamu/internal/repository"
)

// isNotFound collapses the repository's not-found sentinels; the engine
// answers all of them with a "no longer available" style message instead of
// an internal error.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrMovieNotFound) ||
		errors.Is(err, repository.ErrSeriesNotFound) ||
		errors.Is(err, repository.ErrEpisodeNotFound) ||
		errors.Is(err, repository.ErrTransactionNotFound)
}
