package media

import (
	"context"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/cms-backend/internal/data/db"
	mediarepo "github.com/yungbote/cms-backend/internal/data/repos/media"
	"github.com/yungbote/cms-backend/internal/observability"
	"github.com/yungbote/cms-backend/internal/platform/imagevariant"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

const DefaultRetentionDays = 30

// Store is the physical backing for originals and variants. Open must return an error
// satisfying errors.Is(err, fs.ErrNotExist) for a missing key, and Remove must treat a
// missing key as success.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// VariantGenerator renders the WebP renditions of a raster original.
type VariantGenerator interface {
	Generate(ctx context.Context, src []byte) (imagevariant.Result, error)
}

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Assets   mediarepo.AssetRepo
	Store    Store
	Variants VariantGenerator

	// Optional.
	Observer observability.MediaObserver
	Now      func() time.Time
}

type Usecases struct {
	deps UsecasesDeps
	tx   db.TxRunner
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.With("service", "MediaUsecases")
	if deps.Observer == nil {
		deps.Observer = observability.NopMediaObserver{}
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return Usecases{deps: deps, tx: db.NewGormTxRunner(deps.DB)}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

func (u Usecases) now() time.Time { return u.deps.Now().UTC() }
