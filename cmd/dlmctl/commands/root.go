// Package commands implements the dlmctl administrative CLI.
// dlmctl never touches the lock protocol itself; it only provisions and inspects backing tables.
//
// commands 包实现 dlmctl 管理员 CLI
// dlmctl 从不触及锁协议本身，仅负责创建、删除、查看后端表
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/go-xlan/dlm-go-suo/internal/logging"
)

var (
	region   string
	endpoint string
	logFile  string
)

// rootCmd is the base dlmctl command.
// rootCmd 是 dlmctl 的基础命令
var rootCmd = &cobra.Command{
	Use:   "dlmctl",
	Short: "Administer the lock manager's backing DynamoDB tables",
	Long: `dlmctl creates, deletes, and lists the DynamoDB tables that back a
distributed lock manager session. It never acquires, refreshes, or
releases locks; that is the library's job, not this tool's.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region (falls back to DLMCTL_REGION / default AWS config chain)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Override DynamoDB endpoint, e.g. for a local test instance")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Optional path to a rotating log file; nothing is logged when unset")

	must(viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region")))
	must(viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint")))
	must(viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file")))
	viper.SetEnvPrefix("dlmctl")
	viper.AutomaticEnv()

	rootCmd.AddCommand(createTableCmd)
	rootCmd.AddCommand(deleteTableCmd)
	rootCmd.AddCommand(listTablesCmd)
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Execute runs the root command. Execute 运行根命令
func Execute() error {
	return rootCmd.Execute()
}

// cliLogger builds the logging.Logger every subcommand reports its outcome through. When
// --log-file is set, it writes JSON lines to a rotating file, using lumberjack.Logger as
// the rotating io.Writer behind a zap core; when unset, it returns a no-op logger.
//
// cliLogger 构建每个子命令用于报告结果的 logging.Logger
// 当设置了 --log-file 时，它将 JSON 行写入滚动文件；未设置时返回无操作日志记录器
// 以 lumberjack.Logger 作为 zap core 背后的滚动 io.Writer
func cliLogger() logging.Logger {
	path := viper.GetString("log-file")
	if path == "" {
		return logging.NewNopLogger()
	}
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(sink), zapcore.DebugLevel)
	return logging.NewZapLogger(zap.New(core))
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
