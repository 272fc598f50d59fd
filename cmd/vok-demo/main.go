package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	vok "github.com/cansoftinc/vaadin-on-kotlin"
	"github.com/cansoftinc/vaadin-on-kotlin/components/database"
	"github.com/cansoftinc/vaadin-on-kotlin/components/executor"
	"github.com/cansoftinc/vaadin-on-kotlin/components/http_server"
	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
	"github.com/cansoftinc/vaadin-on-kotlin/consts"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
	"github.com/cansoftinc/vaadin-on-kotlin/hooks"
	"github.com/cansoftinc/vaadin-on-kotlin/internal/demo"
	"github.com/cansoftinc/vaadin-on-kotlin/registry"
)

// BizConfig is the biz_config section of config.yaml.
type BizConfig struct {
	DataSource  string        `yaml:"data_source"`
	PageSize    int           `yaml:"page_size"`
	CountPeriod time.Duration `yaml:"count_period"`
}

func main() {
	env := flag.String("env", consts.ENV_DEVELOPMENT, "running environment (development|test|production)")
	cfgPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	biz := &BizConfig{DataSource: "main", PageSize: 20, CountPeriod: time.Minute}
	app := vok.NewApp(*env, *cfgPath)
	app.SetBizConfig(biz)

	// 路由注册时需要已连接的数据库
	registry.ExtendRuntimeDependencies(consts.COMPONENT_HTTP_SERVER, consts.COMPONENT_DATABASE)

	var api *demo.API
	http_server.RegisterRoutes(func(r chi.Router, c *core.Container) error {
		db, err := core.ResolveAs[*database.DatabaseComponent](c, consts.COMPONENT_DATABASE)
		if err != nil {
			return err
		}
		gdb, err := db.GetDB(biz.DataSource)
		if err != nil {
			return err
		}
		api, err = demo.NewAPI(gdb, db.Dialect(), biz.PageSize)
		if err != nil {
			return err
		}
		api.Routes(r)
		return nil
	})

	// http_server 启动后 api 才可用
	err := app.AddHook("person_count_job", hooks.AfterStart, func(ctx context.Context) error {
		exec, err := core.ResolveAs[*executor.Executor](app.Container(), consts.COMPONENT_EXECUTOR)
		if err != nil || api == nil {
			logging.Warn(ctx, "person count job not scheduled", zap.Error(err))
			return nil
		}
		_, err = exec.ScheduleAtFixedRate("person-count", biz.CountPeriod, biz.CountPeriod, api.CountJob)
		return err
	}, 50)
	if err != nil {
		log.Fatalf("add hook: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("vok-demo: %v", err)
	}
}
