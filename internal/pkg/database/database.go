package database

import (
	"github.com/glebarez/sqlite"
	"github.com/kothakarthikeya/legal-contract/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func InitDB(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		// github.com/glebarez/sqlite is pure Go, no cgo needed
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.User{}, &model.Chunk{}); err != nil {
		return nil, err
	}
	return db, nil
}
