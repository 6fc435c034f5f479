package hangout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/webapis/webcom/internal/models"

	"github.com/c-pro/geche"
)

const searchCacheTTL = time.Minute

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Searcher finds users on the server so they can be invited into a hangout.
// Results are cached per search string for a short while.
type Searcher struct {
	client Doer
	apiURL string
	cache  geche.Geche[string, []models.User]
}

func NewSearcher(ctx context.Context, client Doer, apiURL string) *Searcher {
	return &Searcher{
		client: client,
		apiURL: apiURL,
		cache:  geche.NewMapTTLCache[string, []models.User](ctx, searchCacheTTL, 10*time.Second),
	}
}

// FindUsers queries GET /users?search=<search>, dispatching the fetch
// lifecycle into the hangout store, and returns the hits.
func (s *Searcher) FindUsers(ctx context.Context, store *Store, search string) ([]models.User, error) {
	if cached, err := s.cache.Get(search); err == nil {
		store.Dispatch(FetchHangoutsSucceeded{Users: cached})
		return cached, nil
	}

	store.Dispatch(FetchHangoutsStarted{})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.apiURL+"/users?search="+url.QueryEscape(search), nil)
	if err != nil {
		store.Dispatch(FetchHangoutsFailed{Err: err})
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		store.Dispatch(FetchHangoutsFailed{Err: err})
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		store.Dispatch(FetchHangoutsFailed{Err: err})
		return nil, err
	}

	var users []models.User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		store.Dispatch(FetchHangoutsFailed{Err: err})
		return nil, err
	}

	s.cache.Set(search, users)
	store.Dispatch(FetchHangoutsSucceeded{Users: users})
	return users, nil
}
