package ctl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wuya51/gmic-buildathon/pkg/cooldown"
	"github.com/wuya51/gmic-buildathon/pkg/leaderboard"
	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/referral"
	"github.com/wuya51/gmic-buildathon/pkg/stats/counters"
	"github.com/wuya51/gmic-buildathon/pkg/stats/rank"
	"github.com/wuya51/gmic-buildathon/pkg/store/db"
)

// openOffline opens the configured database read-only.
func openOffline(cfg *Config) (*db.DB, error) {
	if cfg.DB == "" {
		return nil, fmt.Errorf("no database: pass --db or set GMCTL_DB")
	}
	d, err := db.Open(cfg.DB, db.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DB, err)
	}
	return d, nil
}

type countRow struct {
	ID    string `yaml:"id"`
	Count uint64 `yaml:"count"`
}

func toRows(entries []models.RankEntry) []countRow {
	out := make([]countRow, len(entries))
	for i, e := range entries {
		out[i] = countRow{ID: e.ID, Count: e.Count}
	}
	return out
}

type statsReport struct {
	Total           uint64     `yaml:"total"`
	CooldownEnabled bool       `yaml:"cooldown_enabled"`
	AllowList       []string   `yaml:"allow_list"`
	Chains          []countRow `yaml:"chains"`
}

func (r statsReport) header() []string { return []string{"CHAIN", "MESSAGES"} }

func (r statsReport) rows() [][]string {
	out := make([][]string, 0, len(r.Chains)+1)
	for _, c := range r.Chains {
		out = append(out, []string{c.ID, humanize.Comma(int64(c.Count))})
	}
	return append(out, []string{"(total)", humanize.Comma(int64(r.Total))})
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show global and per-chain message counts from a database directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			d, err := openOffline(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			var rep statsReport
			if rep.Total, err = counters.Total(d); err != nil {
				return err
			}
			if rep.CooldownEnabled, err = cooldown.Enabled(d); err != nil {
				return err
			}
			if rep.AllowList, err = cooldown.AllowList(d); err != nil {
				return err
			}
			chains, err := counters.Chains(d)
			if err != nil {
				return err
			}
			rank.Sort(chains)
			rep.Chains = toRows(chains)
			return render(cmd.OutOrStdout(), cfg.Output, rep)
		},
	}
}

type topReport struct {
	Board   string     `yaml:"board"`
	Entries []countRow `yaml:"entries"`
}

func (r topReport) header() []string { return []string{"RANK", "ID", "COUNT"} }

func (r topReport) rows() [][]string {
	out := make([][]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = []string{strconv.Itoa(i + 1), e.ID, humanize.Comma(int64(e.Count))}
	}
	return out
}

func newTopCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:       "top {identities|chains|invitations|inviters}",
		Short:     "Print a leaderboard computed from a database directory",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"identities", "chains", "invitations", "inviters"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			d, err := openOffline(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			var entries []models.RankEntry
			switch args[0] {
			case "identities":
				entries, err = leaderboard.Compute(d, leaderboard.BoardIdentities)
				entries = rank.Top(entries, limit)
			case "chains":
				entries, err = leaderboard.Compute(d, leaderboard.BoardChains)
				entries = rank.Top(entries, limit)
			case "invitations":
				entries, err = referral.TopRewards(d, limit)
			case "inviters":
				entries, err = referral.TopInviters(d, limit)
			default:
				return fmt.Errorf("unknown board %q", args[0])
			}
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Output, topReport{Board: args[0], Entries: toRows(entries)})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of rows")
	return cmd
}

type keyFamily struct {
	Family string `yaml:"family"`
	Keys   int    `yaml:"keys"`
	Bytes  uint64 `yaml:"bytes"`
}

type keysReport struct {
	Total    int         `yaml:"total"`
	Families []keyFamily `yaml:"families"`
	Sample   []string    `yaml:"sample,omitempty"`
}

func (r keysReport) header() []string { return []string{"FAMILY", "KEYS", "SIZE"} }

func (r keysReport) rows() [][]string {
	out := make([][]string, 0, len(r.Families)+len(r.Sample))
	for _, f := range r.Families {
		out = append(out, []string{f.Family, humanize.Comma(int64(f.Keys)), humanize.IBytes(f.Bytes)})
	}
	for _, k := range r.Sample {
		out = append(out, []string{k, "", ""})
	}
	return out
}

// family groups keys by their first two segments, e.g. gm:cnt.
func family(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return key
	}
	return parts[0] + ":" + parts[1]
}

func newKeysCmd() *cobra.Command {
	var (
		prefix string
		sample int
	)
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Summarize the keys stored in a database directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			d, err := openOffline(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			var rep keysReport
			index := map[string]int{}
			err = d.Scan([]byte(prefix), func(k, v []byte) error {
				rep.Total++
				key := string(k)
				fam := family(key)
				i, ok := index[fam]
				if !ok {
					i = len(rep.Families)
					index[fam] = i
					rep.Families = append(rep.Families, keyFamily{Family: fam})
				}
				rep.Families[i].Keys++
				rep.Families[i].Bytes += uint64(len(k) + len(v))
				if len(rep.Sample) < sample {
					rep.Sample = append(rep.Sample, key)
				}
				return nil
			})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Output, rep)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only keys with this prefix")
	cmd.Flags().IntVar(&sample, "sample", 0, "also list the first N keys")
	return cmd
}
