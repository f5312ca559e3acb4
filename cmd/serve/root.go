package serve

import (
	"strings"

	cmdUtil "github.com/ValentinKolb/tfstated/cmd/util"

	"github.com/ValentinKolb/tfstated/api/common"
	"github.com/ValentinKolb/tfstated/api/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the tfstated server",
		Long:    `Start the tfstated server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is TFSTATED_<flag> (e.g. TFSTATED_DATA_DIR=/var/lib/tfstated)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080)"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("DataDir is the directory used for storing the state document and the lock record"))

	key = "read-timeout"
	ServeCmd.PersistentFlags().Int(key, 30, cmdUtil.WrapString("ReadTimeout is the maximum duration in seconds for reading an entire request"))

	key = "write-timeout"
	ServeCmd.PersistentFlags().Int(key, 30, cmdUtil.WrapString("WriteTimeout is the maximum duration in seconds before timing out writes of a response"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.ReadTimeoutSecond = viper.GetInt("read-timeout")
	serveCmdConfig.WriteTimeoutSecond = viper.GetInt("write-timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// run starts the tfstated server
func run(_ *cobra.Command, _ []string) error {
	if err := common.InitLoggers(*serveCmdConfig); err != nil {
		return err
	}

	serv := server.NewBackendServer(*serveCmdConfig)
	return serv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("tfstated")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
