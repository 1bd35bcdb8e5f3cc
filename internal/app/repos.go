package app

import (
	"gorm.io/gorm"

	mediarepo "github.com/yungbote/cms-backend/internal/data/repos/media"
	"github.com/yungbote/cms-backend/internal/platform/logger"
)

type Repos struct {
	MediaAssets mediarepo.AssetRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		MediaAssets: mediarepo.NewAssetRepo(db, log),
	}
}
