package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ltss/ltss-api/dataset"
	"github.com/ltss/ltss-api/distribution"
	"github.com/ltss/ltss-api/risk"
	"github.com/ltss/ltss-api/schema"
	"github.com/ltss/ltss-api/store"
	"github.com/ltss/ltss-api/vectorise"
)

var logger *zap.Logger

func init() {
	logger = buildLogger()
}

func buildLogger() *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.Level.SetLevel(zapcore.InfoLevel)

	logger, err := config.Build()
	if err != nil {
		panic("Failed to setup logger")
	}

	return logger
}

func initSentry() {
	// Sentry
	logger.Info("Initializing sentry")
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              viper.GetString("sentry.dsn"),
		AttachStacktrace: true,
		Environment:      viper.GetString("sentry.environment"),
		Dist:             viper.GetString("sentry.dist"),
	}); err != nil {
		logger.Panic("fail to initialize sentry", zap.Error(err))
	}
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

// evaluate compares the band of each validation sample's known stay with the
// band the freshly built model assigns to it
func evaluate(bundle *schema.DistributionBundle, selectors []string, samples []schema.TrainingSample) {
	if len(samples) == 0 {
		logger.Info("no validation samples to evaluate")
		return
	}

	model, err := risk.NewModel(bundle, selectors)
	if err != nil {
		logger.Panic("cannot build model from the new bundle", zap.Error(err))
	}

	hits := 0
	for _, s := range samples {
		profile := model.RiskAndCatByRecord(s.Vector, risk.DefaultConfidence)
		if profile.RiskBand == risk.RiskFromDay(float64(s.LengthOfStay)) {
			hits++
		}
	}

	logger.Info("validation",
		zap.Int("samples", len(samples)),
		zap.Int("band_hits", hits),
		zap.Float64("band_accuracy", float64(hits)/float64(len(samples))))
}

func publish(bundle *schema.DistributionBundle) int64 {
	opts := options.Client().ApplyURI(viper.GetString("mongo.conn"))
	opts.SetMaxPoolSize(1)
	mongoClient, err := mongo.Connect(context.Background(), opts)
	if nil != err {
		logger.Panic("connect mongo database with error", zap.Error(err))
	}

	mongoStore := store.NewMongoStore(mongoClient, viper.GetString("mongo.database"))
	defer mongoStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	version, err := mongoStore.PublishBundle(ctx, bundle)
	if err != nil {
		logger.Panic("publish bundle with error", zap.Error(err))
	}
	return version
}

func main() {
	var (
		configFile  string
		dataFile    string
		savePath    string
		parquetPath string
		shuffle     bool
		seed        int64
		maxSamples  int
		demean      bool
		pdf         bool
		publishTo   bool
	)

	flag.StringVar(&configFile, "c", "./config.yaml", "[optional] path of configuration file")
	flag.StringVar(&dataFile, "data", "", "path of the training records csv")
	flag.StringVar(&savePath, "save-path", "distributions.json", "path to save the distribution bundle")
	flag.StringVar(&parquetPath, "parquet", "", "[optional] path to export the curves as parquet")
	flag.BoolVar(&shuffle, "shuffle-data", false, "shuffle records before the train/validation split")
	flag.Int64Var(&seed, "shuffle-seed", 0, "[optional] seed for shuffling")
	flag.IntVar(&maxSamples, "max-samples", 0, "stop after this many samples, 0 for all")
	flag.BoolVar(&demean, "demean", false, "subtract the base distribution from every category curve")
	flag.BoolVar(&pdf, "pdf", false, "store PDFs instead of CDFs")
	flag.BoolVar(&publishTo, "publish", false, "publish the bundle to mongo as the next version")
	flag.Parse()

	loadConfig(configFile)
	initSentry()
	defer sentry.Flush(2 * time.Second)
	defer logger.Sync()

	if dataFile == "" {
		dataFile = viper.GetString("records.file")
	}

	mapping, err := vectorise.LoadMapping(viper.GetString("mapping.file"))
	if err != nil {
		logger.Panic("load blueprint with error", zap.Error(err))
	}

	description, err := dataset.LoadDataDescription(viper.GetString("description.file"))
	if err != nil {
		logger.Panic("load data description with error", zap.Error(err))
	}

	records, err := dataset.ReadRecordsCSVFile(dataFile)
	if err != nil {
		logger.Panic("read records with error", zap.Error(err))
	}
	logger.Info("read records", zap.String("file", dataFile), zap.Int("records", len(records)))

	handlerOpts := dataset.DefaultHandlerOptions()
	handlerOpts.MaxSamples = maxSamples
	handlerOpts.Shuffle = shuffle
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "shuffle-seed" {
			handlerOpts.Seed = &seed
		}
	})

	handler, err := dataset.NewHandler(records, vectorise.NewVectoriser(mapping), description.ModelSelectors, handlerOpts)
	if err != nil {
		logger.Panic("prepare samples with error", zap.Error(err))
	}
	stats := handler.Stats()
	logger.Info("prepared samples",
		zap.Int("read", stats.Read),
		zap.Int("dropped_negative", stats.DroppedNegative),
		zap.Int("dropped_minor", stats.DroppedMinor),
		zap.Int("clipped", stats.Clipped))

	bundle, err := distribution.NewBuilder(description.ModelSelectors).Build(handler.Training(0, false), distribution.BuildOptions{
		Demean:     demean,
		Cumulative: !pdf,
	})
	if err != nil {
		logger.Panic("build distributions with error", zap.Error(err))
	}

	if err := distribution.Save(savePath, bundle); err != nil {
		logger.Panic("save bundle with error", zap.Error(err))
	}
	logger.Info("saved bundle", zap.String("path", savePath), zap.Strings("selectors", bundle.Selectors))

	if parquetPath != "" {
		if err := distribution.WriteParquet(parquetPath, bundle); err != nil {
			logger.Panic("export parquet with error", zap.Error(err))
		}
		logger.Info("exported parquet", zap.String("path", parquetPath))
	}

	evaluate(bundle, description.ModelSelectors, handler.Validation(0, false))

	if publishTo {
		version := publish(bundle)
		logger.Info("published bundle", zap.Int64("bundle_version", version))
	}
}
