package core

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chainreactors/files"
	"github.com/chainreactors/logs"
	"github.com/chainreactors/proxyclient"
	"github.com/chainreactors/utils"
	"github.com/chainreactors/words/mask"
	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr"
	"github.com/stormloft/pummel/core/pool"
	"github.com/stormloft/pummel/pkg"
	"github.com/stormloft/pummel/pkg/ihttp"
	"github.com/vbauerster/mpb/v8"
)

type Option struct {
	InputOptions    `group:"Input Options" config:"input"`
	CriteriaOptions `group:"Criteria Options" config:"criteria"`
	OutputOptions   `group:"Output Options" config:"output"`
	RequestOptions  `group:"Request Options" config:"request"`
	MiscOptions     `group:"Miscellaneous Options" config:"misc"`
}

type InputOptions struct {
	Config       string   `short:"c" long:"config" description:"File, config filename"`
	URL          string   `short:"u" long:"url" description:"String, target, base url in http mode, host in port mode"`
	RawFile      string   `short:"R" long:"raw" description:"File, raw request template filename"`
	Dictionaries []string `short:"d" long:"dict" description:"Files, Multi,dict files, e.g.: -d 1.txt -d 2.txt" config:"dictionaries"`
	Word         string   `short:"w" long:"word" description:"String, word generate dsl, e.g.: -w test{?ld#4}" config:"word"`
	PortRange    string   `short:"p" long:"port" description:"String, input port range, e.g.: 80,8080-8090,db"`
	Offset       int      `long:"offset" description:"Int, wordlist offset"`
	Limit        int      `long:"limit" description:"Int, wordlist limit, start with offset. e.g.: --offset 1000 --limit 100"`
	Placeholder  string   `long:"placeholder" default:"FUZZ" description:"String, template placeholder token" config:"placeholder"`
}

type CriteriaOptions struct {
	Status      int    `short:"s" long:"status" description:"Int, success status code, e.g.: -s 200" config:"status"`
	Contains    string `short:"b" long:"contains" description:"String, body must contain, e.g.: -b 'Welcome'" config:"contains"`
	NotContains string `short:"B" long:"not-contains" description:"String, body must not contain, e.g.: -B 'Denied'" config:"not-contains"`
	Match       string `long:"match" description:"String, custom match function, e.g.: --match 'current.Status != 200'" config:"match"`
	Filter      string `long:"filter" description:"String, custom filter function, e.g.: --filter 'current.BodyLength == 0'" config:"filter"`
}

type OutputOptions struct {
	OutputFile string `short:"f" long:"file" description:"String, output filename" config:"output-file"`
	Json       bool   `short:"j" long:"json" description:"Bool, output json" config:"json"`
	Quiet      bool   `short:"q" long:"quiet" description:"Bool, Quiet" config:"quiet"`
	NoColor    bool   `long:"no-color" description:"Bool, no color" config:"no-color"`
	NoBar      bool   `long:"no-bar" description:"Bool, No progress bar" config:"no-bar"`
	NoStat     bool   `long:"no-stat" description:"Bool, No stat output" config:"no-stat"`
}

type RequestOptions struct {
	Headers       []string `short:"H" long:"header" description:"Strings, custom headers, e.g.: --header 'Auth: example_auth'" config:"headers"`
	MaxBodyLength int64    `long:"max-length" default:"100" description:"Int, max response body length (kb), -1 read-all, default 100k" config:"max-length"`
}

type MiscOptions struct {
	Mod        string   `short:"m" long:"mod" default:"http" choice:"http" choice:"port" description:"String, http/port brute mode" config:"mod"`
	Client     string   `short:"C" long:"client" default:"auto" choice:"fast" choice:"standard" choice:"auto" description:"String, Client type" config:"client"`
	Rate       int      `short:"r" long:"rate" default:"10" description:"Int, request rate ceiling (req/s)" config:"rate"`
	RetryCount int      `long:"retry" default:"3" description:"Int, retry count on transport failure" config:"retry"`
	Timeout    int      `short:"T" long:"timeout" default:"5" description:"Int, timeout with request (seconds)" config:"timeout"`
	Debug      bool     `long:"debug" description:"Bool, output debug info" config:"debug"`
	Version    bool     `long:"version" description:"Bool, show version"`
	Verbose    []bool   `short:"v" description:"Bool, log verbose level ,default 0, level1: -v level2 -vv" config:"verbose"`
	Proxies    []string `long:"proxy" description:"String, proxy address, e.g.: --proxy socks5://127.0.0.1:1080" config:"proxies"`
	InitConfig bool     `long:"init" description:"Bool, init config file"`
}

func (opt *Option) Validate() error {
	if opt.URL == "" {
		return errors.New("without any target, please use -u to set target")
	}

	if opt.Rate <= 0 {
		return errors.New("-r must be a positive rate")
	}

	if opt.Offset < 0 || opt.Limit < 0 {
		return errors.New("--offset and --limit must be non-negative")
	}

	if opt.Mod == "http" {
		if opt.RawFile == "" {
			return errors.New("http mode requires a request template, please use -R to set it")
		}
		if len(opt.Dictionaries) == 0 && opt.Word == "" {
			return errors.New("without any wordlist, please use -d or -w to set words")
		}
	}
	return nil
}

func (opt *Option) NewRunner() (*Runner, error) {
	var err error
	if err = opt.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		Option:   opt,
		Mode:     pool.ModeMap[opt.Mod],
		OutputCh: make(chan *pkg.Outcome, 256),
		OutWg:    &sync.WaitGroup{},
		Color:    true,
	}

	// log and bar
	if opt.NoColor {
		logs.Log.SetColor(false)
		r.Color = false
	}
	if opt.Quiet {
		logs.Log.SetQuiet(true)
		logs.Log.SetColor(false)
		r.Color = false
	}
	if !(opt.Quiet || opt.NoBar) {
		r.Progress = mpb.New(mpb.WithRefreshRate(100 * time.Millisecond))
		logs.Log.SetOutput(r.Progress)
	}

	if opt.MaxBodyLength == -1 {
		ihttp.DefaultMaxBodySize = -1
	} else {
		ihttp.DefaultMaxBodySize = opt.MaxBodyLength * 1024
	}

	switch opt.Client {
	case "fast":
		r.ClientType = ihttp.FAST
	case "standard":
		r.ClientType = ihttp.STANDARD
	default:
		r.ClientType = ihttp.Auto
	}

	if len(opt.Proxies) > 0 {
		urls, err := proxyclient.ParseProxyURLs(opt.Proxies)
		if err != nil {
			return nil, err
		}
		r.ProxyClient, err = proxyclient.NewClientChain(urls)
		if err != nil {
			return nil, err
		}
	}

	if r.Mode == pool.PortMode {
		if opt.PortRange == "" {
			opt.PortRange = "1-65535"
		}
		r.Ports = utils.ParsePortsString(opt.PortRange)
		r.Total = len(r.Ports)
	} else {
		if err = opt.buildHTTP(r); err != nil {
			return nil, err
		}
	}

	if opt.Match != "" {
		exp, err := expr.Compile(opt.Match)
		if err != nil {
			return nil, err
		}
		r.MatchExpr = exp
	}

	if opt.Filter != "" {
		exp, err := expr.Compile(opt.Filter)
		if err != nil {
			return nil, err
		}
		r.FilterExpr = exp
	}

	if !opt.Quiet {
		fmt.Println(opt.PrintConfig(r))
	}

	if opt.OutputFile != "" {
		r.OutputFile, err = files.NewFile(opt.OutputFile, false, false, true)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (opt *Option) buildHTTP(r *Runner) error {
	var err error
	r.BaseURL, err = url.Parse(opt.URL)
	if err != nil {
		return fmt.Errorf("parse %s, %w", opt.URL, err)
	}
	if r.BaseURL.Scheme == "" || r.BaseURL.Host == "" {
		return fmt.Errorf("invalid base target %s, expect scheme://host", opt.URL)
	}

	r.Template, err = pkg.LoadTemplateFile(opt.RawFile, opt.Placeholder)
	if err != nil {
		return err
	}
	// surface skeleton errors before any lane starts
	if _, err = r.Template.Materialize("", r.BaseURL); err != nil {
		return fmt.Errorf("invalid template %s, %w", opt.RawFile, err)
	}

	if err = opt.buildWords(r); err != nil {
		return err
	}

	r.Criteria = &pkg.Criteria{
		Status:      opt.Status,
		Contains:    opt.Contains,
		NotContains: opt.NotContains,
	}

	r.Headers = make(map[string]string)
	for _, h := range opt.Headers {
		i := strings.Index(h, ":")
		if i == -1 {
			logs.Log.Warn("invalid header")
		} else {
			r.Headers[h[:i]] = strings.TrimSpace(h[i+1:])
		}
	}
	return nil
}

func (opt *Option) buildWords(r *Runner) error {
	var dicts [][]string
	for _, f := range opt.Dictionaries {
		dict, err := pkg.LoadFileToSlice(f)
		if err != nil {
			return err
		}
		dicts = append(dicts, dict)
		logs.Log.Logf(pkg.LogVerbose, "Loaded %d word from %s", len(dict), f)
	}

	if opt.Word == "" {
		opt.Word = "{?"
		for i := range dicts {
			opt.Word += strconv.Itoa(i)
		}
		opt.Word += "}"
	}

	var err error
	r.Wordlist, err = mask.Run(opt.Word, dicts, nil)
	if err != nil {
		return fmt.Errorf("%s %w", opt.Word, err)
	}
	if len(r.Wordlist) > 0 {
		logs.Log.Logf(pkg.LogVerbose, "Parsed %d words by %s", len(r.Wordlist), opt.Word)
	}

	// offset/limit window decides how many verdicts the collector waits for
	total := len(r.Wordlist)
	offset := opt.Offset
	if offset > total {
		offset = total
	}
	end := total
	if opt.Limit > 0 && offset+opt.Limit < total {
		end = offset + opt.Limit
	}
	r.Offset = offset
	r.Total = end - offset
	return nil
}

func (opt *Option) PrintConfig(r *Runner) string {
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Width(16)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA07A"))
	numberStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ADD8E6"))
	panelWidth := 60
	divider := strings.Repeat("─", panelWidth)

	rows := []string{
		lipgloss.JoinHorizontal(lipgloss.Left, keyStyle.Render("Mode: "), valueStyle.Render(opt.Mod)),
		lipgloss.JoinHorizontal(lipgloss.Left, keyStyle.Render("Target: "), valueStyle.Render(opt.URL)),
	}
	if r.Mode == pool.PortMode {
		rows = append(rows,
			lipgloss.JoinHorizontal(lipgloss.Left, keyStyle.Render("Ports: "), valueStyle.Render(opt.PortRange)),
		)
	} else {
		rows = append(rows,
			lipgloss.JoinHorizontal(lipgloss.Left, keyStyle.Render("Template: "), valueStyle.Render(opt.RawFile)),
			lipgloss.JoinHorizontal(lipgloss.Left, keyStyle.Render("Dictionaries: "), valueStyle.Render(fmt.Sprintf("%v", opt.Dictionaries))),
			lipgloss.JoinHorizontal(lipgloss.Left, keyStyle.Render("Words: "), numberStyle.Render(strconv.Itoa(r.Total))),
			lipgloss.JoinHorizontal(lipgloss.Left, keyStyle.Render("Criteria: "), valueStyle.Render(criteriaString(opt))),
		)
	}
	rows = append(rows,
		lipgloss.JoinHorizontal(lipgloss.Left, keyStyle.Render("Rate: "), numberStyle.Render(strconv.Itoa(opt.Rate))),
		lipgloss.JoinHorizontal(lipgloss.Left, keyStyle.Render("Retry: "), numberStyle.Render(strconv.Itoa(opt.RetryCount))),
	)

	return lipgloss.JoinVertical(lipgloss.Left, divider, lipgloss.JoinVertical(lipgloss.Left, rows...), divider)
}

func criteriaString(opt *Option) string {
	var parts []string
	if opt.Status != 0 {
		parts = append(parts, "status == "+strconv.Itoa(opt.Status))
	}
	if opt.Contains != "" {
		parts = append(parts, "contains "+strconv.Quote(opt.Contains))
	}
	if opt.NotContains != "" {
		parts = append(parts, "not contains "+strconv.Quote(opt.NotContains))
	}
	if opt.Match != "" {
		parts = append(parts, "match "+strconv.Quote(opt.Match))
	}
	if opt.Filter != "" {
		parts = append(parts, "filter "+strconv.Quote(opt.Filter))
	}
	if len(parts) == 0 {
		return "any response"
	}
	return strings.Join(parts, " && ")
}
