package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainreactors/files"
	"github.com/chainreactors/logs"
	"github.com/jessevdk/go-flags"
	"github.com/stormloft/pummel/core"
	"github.com/stormloft/pummel/pkg"
)

var ver = "v0.1.0"
var DefaultConfig = "config.yaml"

func init() {
	logs.Log.SetColorMap(map[logs.Level]func(string) string{
		logs.Info:      logs.PurpleBold,
		logs.Important: logs.GreenBold,
		pkg.LogVerbose: logs.Green,
	})
}

func Pummel() {
	var option core.Option

	if files.IsExist(DefaultConfig) {
		logs.Log.Debug("config.yaml exist, loading")
		err := core.LoadConfig(DefaultConfig, &option)
		if err != nil {
			logs.Log.Error(err.Error())
			return
		}
	}

	parser := flags.NewParser(&option, flags.Default)
	parser.Usage = `

  QUICKSTART:
    brute with a raw request template:
      pummel -u http://example.com -R login.raw -d wordlist.txt

    custom success criteria:
      pummel -u http://example.com -R login.raw -d 1.txt -s 200 -b Welcome -B Denied

    mask-base wordlist:
      pummel -u http://example.com -R login.raw -w "admin{?l#4}"

    tcp port sweep:
      pummel -m port -u example.com -p 80,443,8000-9000
`

	_, err := parser.Parse()
	if err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Println(err.Error())
		}
		return
	}

	// logs
	logs.AddLevel(pkg.LogVerbose, "verbose", "[=] %s {{suffix}}")
	if option.Debug {
		logs.Log.SetLevel(logs.Debug)
	} else if len(option.Verbose) > 0 {
		logs.Log.SetLevel(pkg.LogVerbose)
	}

	if option.InitConfig {
		configStr := core.InitDefaultConfig(&option)
		if files.IsExist(DefaultConfig) {
			logs.Log.Warn("override default config: ./config.yaml")
		}
		err := os.WriteFile(DefaultConfig, []byte(configStr), 0o744)
		if err != nil {
			logs.Log.Warn("cannot create config: config.yaml, " + err.Error())
			return
		}
		logs.Log.Info("init default config: ./config.yaml")
		return
	}

	if option.Config != "" {
		err := core.LoadConfig(option.Config, &option)
		if err != nil {
			logs.Log.Error(err.Error())
			return
		}
		logs.Log.Important("load config: " + option.Config)
	}

	if option.Version {
		fmt.Println(ver)
		return
	}

	runner, err := option.NewRunner()
	if err != nil {
		logs.Log.Error(err.Error())
		return
	}

	ctx, canceler := context.WithCancel(context.Background())
	defer canceler()

	go func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logs.Log.Important("exit signal, exit")
		canceler()
	}()

	if err = runner.Run(ctx); err != nil {
		logs.Log.Error(err.Error())
	}
}
