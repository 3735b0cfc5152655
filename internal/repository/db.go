package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 连接池配置
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateAssets,
		migrationCreateZones,
		migrationCreateFuelEvents,
		migrationCreateLocationEvents,
		migrationCreateZoneTransitions,
		migrationCreateAnomalyFlags,
		migrationCreateAssetStates,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// 数据库迁移 SQL
const migrationCreateAssets = `
CREATE TABLE IF NOT EXISTS assets (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    vin VARCHAR(17),
    license_plate VARCHAR(20),
    asset_type VARCHAR(50),
    odometer_unit VARCHAR(5) NOT NULL DEFAULT 'mi',
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`

const migrationCreateZones = `
CREATE TABLE IF NOT EXISTS zones (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    category VARCHAR(50),
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    radius_m DOUBLE PRECISION NOT NULL CHECK (radius_m > 0)
);
`

// 自然键唯一索引即去重约束：先查后写在并发提交同一批次时不成立，必须由存储层保证
const migrationCreateFuelEvents = `
CREATE TABLE IF NOT EXISTS fuel_events (
    id BIGSERIAL PRIMARY KEY,
    asset_id BIGINT NOT NULL REFERENCES assets(id),
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
    product_type VARCHAR(20) NOT NULL,
    volume NUMERIC(12,3) NOT NULL,
    volume_unit VARCHAR(10) NOT NULL,
    unit_price NUMERIC(12,4) NOT NULL,
    total_cost NUMERIC(12,2) NOT NULL,
    odometer NUMERIC(12,1),
    engine_hours NUMERIC(12,1),
    vendor VARCHAR(255),
    card_number VARCHAR(50),
    distance_delta NUMERIC(12,1),
    consumption_rate NUMERIC(12,4),
    cost_per_distance NUMERIC(12,4),
    hours_delta NUMERIC(12,1),
    volume_per_hour NUMERIC(12,4),
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_fuel_events_asset_time ON fuel_events(asset_id, occurred_at DESC, id DESC);
CREATE UNIQUE INDEX IF NOT EXISTS uq_fuel_events_natural
    ON fuel_events(asset_id, occurred_at, volume, total_cost);
`

const migrationCreateLocationEvents = `
CREATE TABLE IF NOT EXISTS location_events (
    id BIGSERIAL PRIMARY KEY,
    asset_id BIGINT NOT NULL REFERENCES assets(id),
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    speed DOUBLE PRECISION,
    heading DOUBLE PRECISION,
    accuracy DOUBLE PRECISION,
    source VARCHAR(20) NOT NULL,
    zone_id BIGINT REFERENCES zones(id),
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_location_events_asset_time ON location_events(asset_id, occurred_at DESC, id DESC);
CREATE UNIQUE INDEX IF NOT EXISTS uq_location_events_natural
    ON location_events(asset_id, occurred_at, latitude, longitude, source);
`

const migrationCreateZoneTransitions = `
CREATE TABLE IF NOT EXISTS zone_transitions (
    id BIGSERIAL PRIMARY KEY,
    asset_id BIGINT NOT NULL REFERENCES assets(id),
    zone_id BIGINT NOT NULL REFERENCES zones(id),
    location_event_id BIGINT NOT NULL REFERENCES location_events(id),
    kind VARCHAR(10) NOT NULL,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_zone_transitions_asset_time ON zone_transitions(asset_id, occurred_at DESC);
`

const migrationCreateAnomalyFlags = `
CREATE TABLE IF NOT EXISTS anomaly_flags (
    id BIGSERIAL PRIMARY KEY,
    fuel_event_id BIGINT NOT NULL REFERENCES fuel_events(id) ON DELETE CASCADE,
    asset_id BIGINT NOT NULL REFERENCES assets(id),
    kind VARCHAR(30) NOT NULL,
    observed NUMERIC(12,4) NOT NULL,
    threshold NUMERIC(12,4),
    acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
    acknowledged_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_anomaly_flags_asset ON anomaly_flags(asset_id, created_at DESC);
`

const migrationCreateAssetStates = `
CREATE TABLE IF NOT EXISTS asset_states (
    asset_id BIGINT PRIMARY KEY REFERENCES assets(id),
    last_event_at TIMESTAMP WITH TIME ZONE NOT NULL,
    latitude DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    zone_id BIGINT REFERENCES zones(id),
    odometer NUMERIC(12,1),
    engine_hours NUMERIC(12,1),
    consumption_rate NUMERIC(12,4),
    cost_per_distance NUMERIC(12,4),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`
