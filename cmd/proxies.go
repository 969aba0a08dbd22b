package cmd

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/apply-pilot/internal/logger"
	"github.com/spigell/apply-pilot/internal/proxy"
)

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "Probe every configured proxy and print the pool state",
	RunE: func(_ *cobra.Command, _ []string) error {
		return proxies()
	},
}

func init() {
	rootCmd.AddCommand(proxiesCmd)
}

func proxies() error {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		return err
	}

	pool, err := newPool(config.Proxy, logger)
	if err != nil {
		return err
	}
	if pool == nil {
		return errors.New("proxy.file is not configured (set it in the config or PROXY_FILE)")
	}

	working, total := pool.Refresh(context.Background())
	stats := pool.Stats()
	logger.Info("proxies checked",
		zap.Int("working", working),
		zap.Int("total", total),
		zap.Int("failed", stats.Failed),
	)

	return pterm.DefaultTable.WithHasHeader().WithData(proxyTable(pool.Proxies())).Render()
}

func proxyTable(entries []proxy.Proxy) pterm.TableData {
	data := pterm.TableData{{"Proxy", "Protocol", "Active", "Fails", "Latency", "Last used"}}
	for _, p := range entries {
		latency, lastUsed := "-", "-"
		if p.Latency > 0 {
			latency = humanize.FtoaWithDigits(float64(p.Latency)/float64(time.Millisecond), 1) + "ms"
		}
		if !p.LastUsed.IsZero() {
			lastUsed = humanize.Time(p.LastUsed)
		}

		data = append(data, []string{
			p.String(),
			p.Protocol,
			strconv.FormatBool(p.Active),
			strconv.Itoa(p.FailCount),
			latency,
			lastUsed,
		})
	}
	return data
}
