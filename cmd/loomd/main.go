package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	cfg "github.com/loom-ml/loom/pkg/configs/tracker"
	"github.com/loom-ml/loom/pkg/domain/auth"
	kdb "github.com/loom-ml/loom/pkg/domain/tracking/db"
	kpg "github.com/loom-ml/loom/pkg/domain/tracking/db/postgres"
	"github.com/loom-ml/loom/pkg/domain/tracking/store"
	"github.com/loom-ml/loom/pkg/utils/echoutil"
	"github.com/loom-ml/loom/pkg/utils/filewatch"

	"github.com/loom-ml/loom/cmd/loomd/handlers"
)

func main() {

	configPath := flag.String("config-path", "", "tracker config path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	issueToken := flag.String("issue-token", "", "issue an API token for the named subject and quit")
	flag.Parse()

	conf, err := cfg.LoadTrackerConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	var signer *auth.Signer
	if token := conf.Token(); token != nil {
		signer, err = auth.NewSigner(token.Secret(), token.TTL())
		if err != nil {
			log.Fatalf("can not build token signer: %s", err)
		}
	}

	if *issueToken != "" {
		if signer == nil {
			log.Fatal("no token section in config. can not issue tokens.")
		}
		token, err := signer.Issue(*issueToken)
		if err != nil {
			log.Fatalf("can not issue token: %s", err)
		}
		fmt.Println(token)
		return
	}

	e := echo.New()

	// set log
	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	// quit to restart when config file is updated.
	{
		ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), *configPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		context.AfterFunc(ctx, func() {
			log.Println("config file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	// get dbaccesor
	ctx := context.Background()
	db, err := getDBAccesor(ctx, conf.Database())
	if err != nil {
		log.Fatalf("can not connect to database: %s", err)
	}
	defer db.Close()

	blobs, err := store.New(conf.Store())
	if err != nil {
		log.Fatalf("can not open checkpoint store: %s", err)
	}

	// handlers
	api := e.Group("/api")
	if signer != nil {
		api.Use(auth.Middleware(signer))
	}
	{
		api.POST("/runs", handlers.RegisterRunHandler(db.Runs()))
		api.GET("/runs/:runId", handlers.GetRunHandler(db.Runs(), "runId"))
		api.PUT("/runs/:runId/status", handlers.SetRunStatusHandler(db.Runs(), "runId"))

		api.GET("/runs/:runId/tags", handlers.GetTagsForRunHandler(db.Runs(), "runId"))
		api.PUT("/runs/:runId/tags", handlers.PutTagsForRunHandler(db.Runs(), "runId"))

		api.GET("/runs/:runId/checkpoints", handlers.ListCheckpointsOfRunHandler(db.Runs(), "runId"))
		api.GET("/runs/:runId/checkpoints/:name", handlers.GetCheckpointHandler(blobs, "runId", "name"))
		api.PUT("/runs/:runId/checkpoints/:name", handlers.PutCheckpointHandler(db.Runs(), blobs, "runId", "name"))
	}

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(fmt.Sprintf(":%d", conf.Port()), cert, key))
	} else {
		e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", conf.Port())))
	}
}

func getDBAccesor(ctx context.Context, dburi string) (kdb.Interface, error) {
	return kpg.New(ctx, dburi)
}
