package client

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/guldfisk/cubeclient-go/models"
	"github.com/guldfisk/cubeclient-go/pagination"
)

// SearchOptions controls ordering of printing and cardboard searches.
type SearchOptions struct {
	// OrderBy names the sort field. Empty means "name".
	OrderBy string
	// Descending reverses the sort order.
	Descending bool
}

// SessionsOptions controls filtering and ordering of limited session
// listings.
type SessionsOptions struct {
	// Filters holds additional query parameters passed through to the
	// service, such as name or state filters.
	Filters map[string]string
	// SortKey names the sort field. Empty means "created_at".
	SortKey string
	// Ascending flips the default newest-first order.
	Ascending bool
}

// Client is the synchronous operation set of a cube-catalog service.
//
// The first six methods are trivial accessors on local session state; they
// never perform I/O and are exactly the operations the asynchronous facade
// passes through instead of wrapping (see asyncclient.ExcludedOperations).
// Every other method issues at least one request.
//
// Paginated operations take an offset and limit; a non-positive limit falls
// back to the configured default page size.
type Client interface {
	// Host returns the service host the client talks to.
	Host() string
	// Scheme returns the URL scheme used for requests.
	Scheme() string
	// Token returns the current session token, or the empty string when
	// unauthenticated.
	Token() string
	// SetToken replaces the session token.
	SetToken(token string)
	// User returns the authenticated user, or nil when unauthenticated.
	User() *models.User
	// Logout clears the session token and user locally.
	Logout()

	// Login authenticates with the service and stores the resulting token
	// and user on the client. It returns the token.
	Login(ctx context.Context, username, password string) (string, error)
	// DBInfo describes the card database snapshot the service serves.
	DBInfo(ctx context.Context) (*models.DBInfo, error)
	// MinClientVersion returns the oldest client version the service accepts.
	MinClientVersion(ctx context.Context) (string, error)
	// ReportError submits a client-side error report.
	ReportError(ctx context.Context, message, traceback string) error
	// DownloadDB streams the service's card database into target.
	DownloadDB(ctx context.Context, target io.Writer) error

	// Release fetches a cube release by id.
	Release(ctx context.Context, id int64) (*models.CubeRelease, error)
	// VersionedCube fetches a versioned cube, including its releases.
	VersionedCube(ctx context.Context, id int64) (*models.VersionedCube, error)
	// VersionedCubes lists versioned cubes. The listing is memoized per
	// client; pass fresh to bypass the memo.
	VersionedCubes(ctx context.Context, offset, limit int, fresh bool) (pagination.Response[*models.VersionedCube], error)

	// Patch fetches a patch by id.
	Patch(ctx context.Context, id int64) (*models.Patch, error)
	// Patches lists the patches of a versioned cube.
	Patches(ctx context.Context, versionedCubeID int64, offset, limit int) (pagination.Response[*models.Patch], error)
	// PreviewPatch fetches the cube a patch would produce if applied.
	PreviewPatch(ctx context.Context, patchID int64) (*models.MetaCube, error)
	// VerbosePatch fetches the detailed change list of a patch.
	VerbosePatch(ctx context.Context, patchID int64) (*models.VerboseCubePatch, error)
	// DistributionPossibilities lists generated trap distributions for a
	// patch.
	DistributionPossibilities(ctx context.Context, patchID int64, offset, limit int) (pagination.Response[*models.DistributionPossibility], error)

	// SearchPrintings searches printings with the service's query syntax.
	SearchPrintings(ctx context.Context, query string, offset, limit int, opts SearchOptions) (pagination.Response[*models.Printing], error)
	// SearchCardboards searches cardboards with the service's query syntax.
	SearchCardboards(ctx context.Context, query string, offset, limit int, opts SearchOptions) (pagination.Response[*models.Cardboard], error)

	// LimitedSession fetches a limited session, including its pools.
	LimitedSession(ctx context.Context, id int64) (*models.LimitedSession, error)
	// LimitedSessions lists limited sessions.
	LimitedSessions(ctx context.Context, offset, limit int, opts SessionsOptions) (pagination.Response[*models.LimitedSession], error)
	// LimitedPool fetches a limited pool, including its cards and decks.
	LimitedPool(ctx context.Context, id int64) (*models.LimitedPool, error)
	// LimitedDeck fetches a limited deck, including its deck payload.
	LimitedDeck(ctx context.Context, id int64) (*models.LimitedDeck, error)
	// UploadLimitedDeck submits a deck built from the given pool.
	UploadLimitedDeck(ctx context.Context, poolID int64, name string, deck models.Deck) (*models.LimitedDeck, error)

	// Tournament fetches a tournament, including its rounds.
	Tournament(ctx context.Context, id int64) (*models.Tournament, error)
	// ScheduledMatch fetches a scheduled match, including its tournament.
	ScheduledMatch(ctx context.Context, id int64) (*models.ScheduledMatch, error)
	// ScheduledMatches lists a user's scheduled matches.
	ScheduledMatches(ctx context.Context, userID int64, offset, limit int) (pagination.Response[*models.ScheduledMatch], error)

	// RatingHistoryForCubeable returns the rating history of a cardboard
	// cubeable within a release's rating maps.
	RatingHistoryForCubeable(ctx context.Context, releaseID int64, cubeable string) ([]*models.RatingPoint, error)
	// RatingHistoryForNode returns the weighted rating history of a node
	// within a release's rating maps.
	RatingHistoryForNode(ctx context.Context, releaseID int64, node string) ([]*models.NodeRatingPoint, error)
	// Ratings fetches a rating map by id, including its entries.
	Ratings(ctx context.Context, id int64) (*models.RatingMap, error)
	// RatingsForVersionedCube fetches the latest rating map of a versioned
	// cube.
	RatingsForVersionedCube(ctx context.Context, versionedCubeID int64) (*models.RatingMap, error)
	// RatingsForRelease fetches the rating map attached to a release.
	RatingsForRelease(ctx context.Context, releaseID int64) (*models.RatingMap, error)
}

// ParseHost splits a host argument into scheme and host. The argument may be
// a bare host ("example.com:8000") or carry a scheme ("http://example.com");
// defaultScheme applies in the former case.
func ParseHost(host, defaultScheme string) (scheme, parsedHost string) {
	if !strings.Contains(host, "//") {
		host = "//" + host
	}
	parsed, err := url.Parse(host)
	if err != nil {
		return defaultScheme, strings.TrimPrefix(host, "//")
	}
	scheme = parsed.Scheme
	if scheme == "" {
		scheme = defaultScheme
	}
	parsedHost = parsed.Host
	if parsedHost == "" {
		parsedHost = parsed.Path
	}
	return scheme, parsedHost
}
