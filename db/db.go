package db

import (
	"context"
	"fmt"
	"geo-editor/auth"
	"geo-editor/config"
	"geo-editor/model"
	"geo-editor/project"
	"geo-editor/store"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// retryDelay 重试间隔 (Docker 启动时数据库可能还没准备好)
var retryDelay = 2 * time.Second

// Open 带重试的数据库连接，直到连接成功或 ctx 取消
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < maxRetries; i++ {
		conn, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		if err == nil {
			break
		}
		log.Printf("[warn] operation=db_connect attempt=%d/%d error=%v", i+1, maxRetries, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return conn, nil
}

// Migrate 自动迁移模式 (自动创建表结构)
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&auth.UserRecord{},
		&project.ProjectRecord{},
		&project.MembershipRecord{},
		&store.PointRecord{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SeedDemo 用户表为空时导入演示管理员和演示项目
func SeedDemo(ctx context.Context, conn *gorm.DB) error {
	var count int64
	if err := conn.WithContext(ctx).Model(&auth.UserRecord{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	log.Println("[info] operation=seed empty database, inserting demo data")
	hash, err := auth.HashPassword(auth.DemoPassword)
	if err != nil {
		return err
	}

	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin := auth.UserRecord{
			ID:           auth.DemoUserID,
			Email:        auth.DemoEmail,
			Name:         auth.DemoName,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("insert demo user: %w", err)
		}

		for _, p := range project.DemoProjects() {
			rec := project.NewProjectRecord(p)
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
				return fmt.Errorf("insert project %s: %w", p.ID, err)
			}
			m := project.MembershipRecord{UserID: admin.ID, ProjectID: p.ID, Role: string(model.RoleSuperAdmin)}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("insert membership %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// Ping 检查连接
func Ping(ctx context.Context, conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 释放连接池
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
