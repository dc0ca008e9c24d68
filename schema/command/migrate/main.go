package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ltss/ltss-api/schema"
)

func loadConfig(file string) {
	viper.SetConfigType("yaml")
	if file != "" {
		viper.SetConfigFile(file)
	}

	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file. Read config from env.")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ltss")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func main() {
	var configFile string
	flag.StringVar(&configFile, "c", "./config.yaml", "[optional] path of configuration file")
	flag.Parse()

	loadConfig(configFile)

	fmt.Println("create indexes of", viper.GetString("mongo.database"))
	schema.NewMongoDBIndexer(viper.GetString("mongo.conn"), viper.GetString("mongo.database")).IndexAll()
}
