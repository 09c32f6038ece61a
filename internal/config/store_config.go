package config

import (
	"path/filepath"
	"strconv"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type StoreConfig interface {
	GetSessionStore() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
	GetGroupStore() string
	GetDataFolder() string
	GetDatabaseDSN() string
	GetMongoURI() string
	GetMongoDatabase() string
}

type Stores struct {
	src source
}

var _ StoreConfig = Stores{}

func (s Stores) GetSessionStore() string {
	return s.src.get("SESSION_STORE", StoreMemory)
}

func (s Stores) GetRedisAddr() string {
	return s.src.get("REDIS_ADDR", "localhost:6379")
}

func (s Stores) GetRedisPassword() string {
	return s.src.get("REDIS_PASSWORD", "")
}

func (s Stores) GetRedisDB() int {
	db, err := strconv.Atoi(s.src.get("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return db
}

// GetRedisPrefix namespaces session keys; empty keeps the store's default.
func (s Stores) GetRedisPrefix() string {
	return s.src.get("REDIS_PREFIX", "")
}

func (s Stores) GetGroupStore() string {
	return s.src.get("GROUP_STORE", StoreSQLite)
}

func (s Stores) GetDataFolder() string {
	return s.src.get("FOLDER", "./data")
}

// GetDatabaseDSN defaults to a sqlite file in the data folder.
func (s Stores) GetDatabaseDSN() string {
	return s.src.get("DATABASE_DSN", filepath.Join(s.GetDataFolder(), "dashboard.db"))
}

func (s Stores) GetMongoURI() string {
	return s.src.get("MONGO_URI", "mongodb://localhost:27017")
}

func (s Stores) GetMongoDatabase() string {
	return s.src.get("MONGO_DATABASE", "accounts-dashboard")
}
