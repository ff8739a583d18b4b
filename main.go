package main

import (
	"context"
	"errors"
	"geo-editor/auth"
	"geo-editor/bulkload"
	"geo-editor/config"
	"geo-editor/db"
	"geo-editor/editor"
	"geo-editor/events"
	"geo-editor/export"
	"geo-editor/handler"
	"geo-editor/model"
	"geo-editor/project"
	"geo-editor/session"
	"geo-editor/store"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	log.Println("=== geo-editor: map point editing service ===")

	// 1. 加载配置 (.env 与环境变量)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[error] invalid configuration: %v", err)
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	// 2. 初始化存储、认证和会话等服务
	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("[error] startup failed: %v", err)
	}
	defer app.close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	// 3. 初始化 Gin 引擎并配置路由
	r := gin.New()
	setupRoutes(r, cfg, app.handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if app.scheduler != nil {
		app.scheduler.Start()
	}

	// 4. 启动服务器
	go func() {
		log.Printf("[info] listening on :%s (store=%s)", cfg.Server.Port, cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[error] server failed: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Println("[info] shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[warn] graceful shutdown failed: %v", err)
	}
}

// signalContext 收到 SIGINT 或 SIGTERM 时取消
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			log.Println("[info] received termination signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// setupRoutes 配置路由
func setupRoutes(r *gin.Engine, cfg *config.Config, h *handler.Handler) {
	r.Use(gin.Recovery())
	r.Use(handler.RequestID())

	// CORS 跨域中间件
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.Server.AllowedOrigins) == 0 || cfg.Server.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	h.Register(r)
}

// app 组装好的服务，以及退出时需要释放的资源
type app struct {
	handler   *handler.Handler
	scheduler *export.Scheduler
	closers   []func() error
}

func (a *app) close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[warn] close: %v", err)
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	var conn *gorm.DB
	if cfg.UsesDatabase() {
		var err error
		conn, err = db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return db.Close(conn) })
		if err := db.Migrate(conn); err != nil {
			return nil, err
		}
		if cfg.Database.SeedDemo {
			if err := db.SeedDemo(ctx, conn); err != nil {
				return nil, err
			}
		}
		log.Println("[info] database ready")
	}

	// 用户
	var users auth.UserDirectory
	if cfg.Auth.DemoUsers {
		demo, err := auth.NewDemoUsers()
		if err != nil {
			return nil, err
		}
		users = demo
	} else {
		users = auth.NewGormUsers(conn)
	}
	authSvc := auth.NewService(users, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))

	// 项目
	var (
		projects    project.Directory
		listProject export.ProjectLister
	)
	if conn != nil {
		dir := project.NewGormDirectory(conn)
		projects, listProject = dir, dir.IDs
	} else {
		dir := project.NewMemoryDirectory(project.DemoProjects())
		for _, id := range dir.IDs() {
			dir.Grant(auth.DemoUserID, id, model.RoleSuperAdmin)
		}
		projects = dir
		listProject = func(context.Context) ([]string, error) { return dir.IDs(), nil }
	}

	// 点位存储
	var points store.PointStore
	switch cfg.Store.Backend {
	case config.StorePostgres:
		points = store.NewPostgresStore(conn)
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		rs := store.NewRedisStore(client)
		// 定时导出只覆盖有点位的项目
		points, listProject = rs, rs.Projects
	default:
		points = store.NewMemoryStore()
	}

	// 事件
	var pub events.Publisher = events.Noop{}
	if cfg.Kafka.Enabled() {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, kp.Close)
		pub = kp
		points = store.WithEvents(points, pub)
		log.Printf("[info] publishing point events to %s", cfg.Kafka.Topic)
	}

	// 导出
	var exporter *export.Exporter
	if cfg.Export.Enabled() {
		uploader, err := export.NewS3Uploader(cfg.Export)
		if err != nil {
			return nil, err
		}
		if err := uploader.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		exporter = export.NewExporter(points, uploader)
		if cfg.Export.Schedule != "" {
			a.scheduler, err = export.NewScheduler(cfg.Export.Schedule, exporter, listProject)
			if err != nil {
				return nil, err
			}
		}
	}

	sessions := session.NewManager(points, editor.Options{
		ConfirmDiscard: cfg.Editor.ConfirmDiscard,
		CoalesceSaves:  cfg.Editor.CoalesceSaves,
	})

	a.handler = handler.New(handler.Deps{
		Auth:               authSvc,
		Projects:           projects,
		Points:             points,
		Sessions:           sessions,
		Importer:           bulkload.NewImporter(points, pub),
		Exporter:           exporter,
		Overlay:            session.WMSOverlay(cfg.Editor.WMSURL, cfg.Editor.WMSLayer),
		HitToleranceMeters: cfg.Editor.HitToleranceMeters,
		SaveTimeout:        cfg.Editor.SaveTimeout,
		LoginRate:          cfg.Auth.LoginRate,
		LoginBurst:         cfg.Auth.LoginBurst,
	})
	return a, nil
}
