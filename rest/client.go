package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/guldfisk/cubeclient-go/client"
	"github.com/guldfisk/cubeclient-go/models"
	"github.com/guldfisk/cubeclient-go/pagination"
)

// Client talks to a cube-catalog service over HTTP. It is safe for
// concurrent use.
type Client struct {
	cfg     client.Config
	scheme  string
	host    string
	http    *http.Client
	log     *logrus.Logger
	metrics client.Metrics

	mu    sync.Mutex
	token string
	user  *models.User

	versionedCubes pagination.Response[*models.VersionedCube]
}

var _ client.Client = (*Client)(nil)

// New builds a Client from cfg. It validates cfg and splits cfg.Host into
// scheme and host.
func New(cfg client.Config) (*Client, error) {
	if cfg.Scheme == "" {
		cfg.Scheme = "https"
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 10
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scheme, host := client.ParseHost(cfg.Host, cfg.Scheme)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = client.NoopMetrics{}
	}

	return &Client{
		cfg:     cfg,
		scheme:  scheme,
		host:    host,
		http:    httpClient,
		log:     log,
		metrics: metrics,
		token:   cfg.Token,
	}, nil
}

func (c *Client) Host() string   { return c.host }
func (c *Client) Scheme() string { return c.scheme }

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.user = nil
}

// pageLimit resolves a caller-supplied limit against the configured default.
func (c *Client) pageLimit(limit int) int {
	if limit > 0 {
		return limit
	}
	return c.cfg.PageSize
}

// decode adapts JSON unmarshalling of one raw record into the serializer
// shape package pagination consumes.
func decode[T any](raw json.RawMessage) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	return v, nil
}

// paged lists path as a paginated response: a lazy sequence by default, a
// fully materialized page when the client is configured for static
// pagination.
func paged[T any](
	ctx context.Context,
	c *Client,
	op, path string,
	query url.Values,
	offset, limit int,
	serialize pagination.Serializer[T],
	opts ...pagination.Option[T],
) (pagination.Response[T], error) {
	endpoint := func(ctx context.Context, offset, limit int) (pagination.Page, error) {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(limit))

		var page pagination.Page
		if err := c.do(ctx, op, http.MethodGet, path, q, nil, &page); err != nil {
			return pagination.Page{}, err
		}
		return page, nil
	}

	if c.cfg.StaticPagination {
		return pagination.FetchStatic(ctx, endpoint, serialize, offset, c.pageLimit(limit), opts...)
	}
	return pagination.NewSequence(ctx, endpoint, serialize, offset, c.pageLimit(limit), opts...)
}

// Login authenticates and stores the session token and user.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if err := c.do(ctx, "login", http.MethodPost, "auth/login", nil, form, &resp); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.token = resp.Token
	c.user = resp.User
	c.mu.Unlock()
	return resp.Token, nil
}

func (c *Client) DBInfo(ctx context.Context) (*models.DBInfo, error) {
	var info models.DBInfo
	if err := c.do(ctx, "db_info", http.MethodGet, "db-info", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) MinClientVersion(ctx context.Context) (string, error) {
	var resp struct {
		Version string `json:"version"`
	}
	if err := c.do(ctx, "min_client_version", http.MethodGet, "min-supported-client-version", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}

func (c *Client) ReportError(ctx context.Context, message, traceback string) error {
	form := url.Values{}
	form.Set("error", message)
	form.Set("traceback", traceback)
	return c.do(ctx, "report_error", http.MethodPost, "report-error", nil, form, nil)
}

// DownloadDB streams the card database snapshot into target.
func (c *Client) DownloadDB(ctx context.Context, target io.Writer) error {
	body, err := c.stream(ctx, "download_db", "db")
	if err != nil {
		return err
	}
	defer body.Close()

	if _, err := io.Copy(target, body); err != nil {
		return fmt.Errorf("download_db: %w", err)
	}
	return nil
}

func (c *Client) Release(ctx context.Context, id int64) (*models.CubeRelease, error) {
	var release models.CubeRelease
	if err := c.do(ctx, "release", http.MethodGet, fmt.Sprintf("cube-releases/%d", id), nil, nil, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (c *Client) VersionedCube(ctx context.Context, id int64) (*models.VersionedCube, error) {
	var cube models.VersionedCube
	if err := c.do(ctx, "versioned_cube", http.MethodGet, fmt.Sprintf("versioned-cubes/%d", id), nil, nil, &cube); err != nil {
		return nil, err
	}
	return &cube, nil
}

// VersionedCubes lists versioned cubes. The first successful listing is
// memoized; pass fresh to refetch.
func (c *Client) VersionedCubes(ctx context.Context, offset, limit int, fresh bool) (pagination.Response[*models.VersionedCube], error) {
	c.mu.Lock()
	cached := c.versionedCubes
	c.mu.Unlock()
	if cached != nil && !fresh {
		return cached, nil
	}

	cubes, err := paged(
		ctx, c, "versioned_cubes", "versioned-cubes", nil, offset, limit,
		decode[models.VersionedCube],
		pagination.WithEquality[*models.VersionedCube]((*models.VersionedCube).Equal),
	)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.versionedCubes = cubes
	c.mu.Unlock()
	return cubes, nil
}

func (c *Client) Patch(ctx context.Context, id int64) (*models.Patch, error) {
	var patch models.Patch
	if err := c.do(ctx, "patch", http.MethodGet, fmt.Sprintf("patches/%d", id), nil, nil, &patch); err != nil {
		return nil, err
	}
	return &patch, nil
}

func (c *Client) Patches(ctx context.Context, versionedCubeID int64, offset, limit int) (pagination.Response[*models.Patch], error) {
	return paged(
		ctx, c, "patches", fmt.Sprintf("versioned-cubes/%d/patches", versionedCubeID), nil, offset, limit,
		decode[models.Patch],
		pagination.WithEquality[*models.Patch]((*models.Patch).Equal),
	)
}

func (c *Client) PreviewPatch(ctx context.Context, patchID int64) (*models.MetaCube, error) {
	var meta models.MetaCube
	if err := c.do(ctx, "preview_patch", http.MethodGet, fmt.Sprintf("patches/%d/preview", patchID), nil, nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *Client) VerbosePatch(ctx context.Context, patchID int64) (*models.VerboseCubePatch, error) {
	var patch models.VerboseCubePatch
	if err := c.do(ctx, "verbose_patch", http.MethodGet, fmt.Sprintf("patches/%d/verbose", patchID), nil, nil, &patch); err != nil {
		return nil, err
	}
	return &patch, nil
}

func (c *Client) DistributionPossibilities(ctx context.Context, patchID int64, offset, limit int) (pagination.Response[*models.DistributionPossibility], error) {
	return paged(
		ctx, c, "distribution_possibilities",
		fmt.Sprintf("patches/%d/distribution-possibilities", patchID), nil, offset, limit,
		decode[models.DistributionPossibility],
		pagination.WithEquality[*models.DistributionPossibility]((*models.DistributionPossibility).Equal),
	)
}

func searchQuery(query string, opts client.SearchOptions, target string) url.Values {
	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "name"
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("order_by", orderBy)
	q.Set("descending", strconv.FormatBool(opts.Descending))
	q.Set("search_target", target)
	return q
}

func (c *Client) SearchPrintings(ctx context.Context, query string, offset, limit int, opts client.SearchOptions) (pagination.Response[*models.Printing], error) {
	return paged(
		ctx, c, "search_printings", "search", searchQuery(query, opts, "printings"), offset, limit,
		decode[models.Printing],
		pagination.WithEquality[*models.Printing]((*models.Printing).Equal),
	)
}

func (c *Client) SearchCardboards(ctx context.Context, query string, offset, limit int, opts client.SearchOptions) (pagination.Response[*models.Cardboard], error) {
	return paged(
		ctx, c, "search_cardboards", "search", searchQuery(query, opts, "cardboards"), offset, limit,
		decode[models.Cardboard],
		pagination.WithEquality[*models.Cardboard]((*models.Cardboard).Equal),
	)
}

func (c *Client) LimitedSession(ctx context.Context, id int64) (*models.LimitedSession, error) {
	var session models.LimitedSession
	if err := c.do(ctx, "limited_session", http.MethodGet, fmt.Sprintf("limited/sessions/%d", id), nil, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) LimitedSessions(ctx context.Context, offset, limit int, opts client.SessionsOptions) (pagination.Response[*models.LimitedSession], error) {
	sortKey := opts.SortKey
	if sortKey == "" {
		sortKey = "created_at"
	}
	q := url.Values{}
	q.Set("sort_key", sortKey)
	q.Set("ascending", strconv.FormatBool(opts.Ascending))
	for k, v := range opts.Filters {
		q.Set(k, v)
	}

	return paged(
		ctx, c, "limited_sessions", "limited/sessions", q, offset, limit,
		decode[models.LimitedSession],
		pagination.WithEquality[*models.LimitedSession]((*models.LimitedSession).Equal),
	)
}

func (c *Client) LimitedPool(ctx context.Context, id int64) (*models.LimitedPool, error) {
	var pool models.LimitedPool
	if err := c.do(ctx, "limited_pool", http.MethodGet, fmt.Sprintf("limited/pools/%d", id), nil, nil, &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

func (c *Client) LimitedDeck(ctx context.Context, id int64) (*models.LimitedDeck, error) {
	var deck models.LimitedDeck
	if err := c.do(ctx, "limited_deck", http.MethodGet, fmt.Sprintf("limited/deck/%d", id), nil, nil, &deck); err != nil {
		return nil, err
	}
	return &deck, nil
}

// UploadLimitedDeck submits a deck built from the given pool and returns the
// stored deck.
func (c *Client) UploadLimitedDeck(ctx context.Context, poolID int64, name string, deck models.Deck) (*models.LimitedDeck, error) {
	form := url.Values{}
	form.Set("name", name)
	form.Set("deck", string(deck.RawMessage))

	var uploaded models.LimitedDeck
	if err := c.do(ctx, "upload_limited_deck", http.MethodPost, fmt.Sprintf("limited/pools/%d", poolID), nil, form, &uploaded); err != nil {
		return nil, err
	}
	return &uploaded, nil
}

func (c *Client) Tournament(ctx context.Context, id int64) (*models.Tournament, error) {
	var tournament models.Tournament
	if err := c.do(ctx, "tournament", http.MethodGet, fmt.Sprintf("tournaments/%d", id), nil, nil, &tournament); err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (c *Client) ScheduledMatch(ctx context.Context, id int64) (*models.ScheduledMatch, error) {
	var match models.ScheduledMatch
	if err := c.do(ctx, "scheduled_match", http.MethodGet, fmt.Sprintf("tournaments/scheduled-matches/%d", id), nil, nil, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

func (c *Client) ScheduledMatches(ctx context.Context, userID int64, offset, limit int) (pagination.Response[*models.ScheduledMatch], error) {
	return paged(
		ctx, c, "scheduled_matches",
		fmt.Sprintf("tournaments/users/%d/scheduled-matches", userID), nil, offset, limit,
		decode[models.ScheduledMatch],
		pagination.WithEquality[*models.ScheduledMatch]((*models.ScheduledMatch).Equal),
	)
}

func (c *Client) RatingHistoryForCubeable(ctx context.Context, releaseID int64, cubeable string) ([]*models.RatingPoint, error) {
	var points []*models.RatingPoint
	path := fmt.Sprintf("ratings/history/%d/%s", releaseID, cubeable)
	if err := c.do(ctx, "rating_history_for_cubeable", http.MethodGet, path, nil, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *Client) RatingHistoryForNode(ctx context.Context, releaseID int64, node string) ([]*models.NodeRatingPoint, error) {
	var points []*models.NodeRatingPoint
	path := fmt.Sprintf("ratings/node-history/%d/%s", releaseID, node)
	if err := c.do(ctx, "rating_history_for_node", http.MethodGet, path, nil, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *Client) Ratings(ctx context.Context, id int64) (*models.RatingMap, error) {
	return c.ratingMap(ctx, "ratings", fmt.Sprintf("ratings/%d", id))
}

func (c *Client) RatingsForVersionedCube(ctx context.Context, versionedCubeID int64) (*models.RatingMap, error) {
	return c.ratingMap(ctx, "ratings_for_versioned_cube", fmt.Sprintf("ratings/versioned-cube/%d", versionedCubeID))
}

func (c *Client) RatingsForRelease(ctx context.Context, releaseID int64) (*models.RatingMap, error) {
	return c.ratingMap(ctx, "ratings_for_release", fmt.Sprintf("ratings/release/%d", releaseID))
}

func (c *Client) ratingMap(ctx context.Context, op, path string) (*models.RatingMap, error) {
	var ratings models.RatingMap
	if err := c.do(ctx, op, http.MethodGet, path, nil, nil, &ratings); err != nil {
		return nil, err
	}
	return &ratings, nil
}
