package db

import (
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/voxlink/slackbridge/internal/session"
)

// Connect opens the session store. DSNs starting with "file:" (or the
// in-memory ":memory:" form) use sqlite; everything else is treated as a
// MySQL DSN.
func Connect(dsn string) *gorm.DB {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = mysql.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gdb.AutoMigrate(&session.Session{}, &session.Message{}, &session.TurnJob{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}
