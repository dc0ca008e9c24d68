package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ltss/ltss-api/api"
	"github.com/ltss/ltss-api/dataset"
	"github.com/ltss/ltss-api/distribution"
	"github.com/ltss/ltss-api/external/predictor"
	"github.com/ltss/ltss-api/risk"
	"github.com/ltss/ltss-api/schema"
	"github.com/ltss/ltss-api/store"
	"github.com/ltss/ltss-api/vectorise"
)

var (
	server     *api.Server
	mongoStore store.MongoStore
	metrics    io.Closer
)

func initLog() {
	logLevel, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(logLevel)
	}

	log.SetOutput(os.Stdout)

	log.SetFormatter(&prefixed.TextFormatter{
		ForceFormatting: true,
		FullTimestamp:   true,
	})
}

func loadConfig(file string) {
	// Config from file
	viper.SetConfigType("yaml")
	if file != "" {
		viper.SetConfigFile(file)
	}

	viper.AddConfigPath("/.config/")
	viper.AddConfigPath(".")
	err := viper.ReadInConfig()
	if err != nil {
		fmt.Println("No config file. Read config from env.")
		viper.AllowEmptyEnv(false)
	}

	// Config from env if possible
	viper.AutomaticEnv()
	viper.SetEnvPrefix("ltss")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// loadBundle reads the distribution bundle from the configured source and
// returns it with its published version, 0 for a file
func loadBundle(ctx context.Context) (*schema.DistributionBundle, int64, error) {
	switch source := viper.GetString("distributions.source"); source {
	case "", "file":
		bundle, err := distribution.Load(viper.GetString("distributions.file"))
		return bundle, 0, err
	case "mongo":
		if mongoStore == nil {
			return nil, 0, fmt.Errorf("distributions source is mongo but mongo.conn is not configured")
		}
		return mongoStore.LatestBundle(ctx)
	default:
		return nil, 0, fmt.Errorf("unknown distributions source %q", source)
	}
}

func main() {
	var configFile string

	initialCtx, cancelInitialization := context.WithCancel(context.Background())

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Server is preparing to shutdown")

		if initialCtx != nil && cancelInitialization != nil {
			log.Info("Cancelling initialization")
			cancelInitialization()
			<-initialCtx.Done()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if server != nil {
			log.Info("Shutdown risk api server")
			if err := server.Shutdown(ctx); err != nil {
				log.Error("Server Shutdown:", err)
			}
		}

		if mongoStore != nil {
			log.Info("Shutting down mongo store")
			mongoStore.Close()
		}

		if metrics != nil {
			if err := metrics.Close(); err != nil {
				log.Error(err)
			}
		}

		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}()

	flag.StringVar(&configFile, "c", "./config.yaml", "[optional] path of configuration file")
	flag.Parse()

	loadConfig(configFile)

	initLog()

	// Sentry
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              viper.GetString("sentry.dsn"),
		AttachStacktrace: true,
		Environment:      viper.GetString("sentry.environment"),
		Dist:             viper.GetString("sentry.dist"),
	}); err != nil {
		log.Error(err)
	}
	log.WithField("prefix", "init").Info("Initialized sentry")

	// initialise mongodb connections
	if conn := viper.GetString("mongo.conn"); conn != "" {
		opts := options.Client().ApplyURI(conn)
		opts.SetMaxPoolSize(viper.GetUint64("mongo.pool"))
		mongoClient, err := mongo.Connect(initialCtx, opts)
		if nil != err {
			log.Panicf("connect mongo database with error: %s", err)
		}
		mongoStore = store.NewMongoStore(mongoClient, viper.GetString("mongo.database"))
		log.WithField("prefix", "init").Info("Initialized mongo store")
	}

	mapping, err := vectorise.LoadMapping(viper.GetString("mapping.file"))
	if err != nil {
		log.Panic(err)
	}
	log.WithField("prefix", "init").Infof("Loaded blueprint with %d fields", len(mapping.Fields()))

	description, err := dataset.LoadDataDescription(viper.GetString("description.file"))
	if err != nil {
		log.Panic(err)
	}

	bundle, bundleVersion, err := loadBundle(initialCtx)
	if err != nil {
		log.Panic(err)
	}
	model, err := risk.NewModel(bundle, description.ModelSelectors)
	if err != nil {
		log.Panic(err)
	}
	log.WithField("prefix", "init").Infof("Loaded risk model for %v", model.Selectors())

	var records []schema.RawRecord
	if file := viper.GetString("records.file"); file != "" {
		records, err = dataset.ReadRecordsCSVFile(file)
		if err != nil {
			log.Panic(err)
		}
		log.WithField("prefix", "init").Infof("Loaded %d records", len(records))
	}

	var losPredictor predictor.LoSPredictor
	if url := viper.GetString("predictor.url"); url != "" {
		losPredictor = predictor.New(url, &http.Client{
			Timeout: 10 * time.Second,
		})
		log.WithField("prefix", "init").Info("Initialized point predictor client")
	}

	interval := viper.GetDuration("metrics.interval")
	if interval <= 0 {
		interval = time.Minute
	}
	scope, closer := api.NewMetricsScope("ltss", interval)
	metrics = closer

	// Init http server
	server = api.NewServer(
		mongoStore,
		bundleVersion,
		vectorise.NewVectoriser(mapping),
		model,
		description,
		records,
		losPredictor,
		scope)
	log.WithField("prefix", "init").Info("Initialized http server")

	// Remove initial context
	initialCtx = nil
	cancelInitialization = nil

	log.Fatal(server.Run(":" + viper.GetString("server.port")))
}
