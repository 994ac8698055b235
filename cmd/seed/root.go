package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/config"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/database"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/repository"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/seed"
)

type seedContext struct {
	dbpool *sql.DB
	seeder *seed.Seeder
}

func newRootCommand() *cobra.Command {
	ctx := &seedContext{}

	rootCmd := &cobra.Command{
		Use:           "seed",
		Short:         "向数据库插入测试数据",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("无法读取配置文件: %w", err)
			}
			dbpool, err := database.Open(cfg)
			if err != nil {
				return fmt.Errorf("无法连接到数据库: %w", err)
			}

			// 不连接 redis，api 已缓存的排班在过期后才会刷新
			repo := repository.NewRepository(cfg, dbpool, nil)
			ctx.dbpool = dbpool
			ctx.seeder = seed.NewSeeder(repo, cfg.Seed.User.Password, cfg.Email.UserDomain)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if ctx.dbpool != nil {
				return ctx.dbpool.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newUsersCommand(ctx))
	rootCmd.AddCommand(newChannelsCommand(ctx))
	rootCmd.AddCommand(newWeekCommand(ctx))

	return rootCmd
}

func newUsersCommand(ctx *seedContext) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "users",
		Short: "插入随机员工",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := ctx.seeder.Users(n)
			if err != nil {
				return err
			}

			tw := newTable("ID", "用户名", "姓名", "岗位", "邮箱")
			for _, u := range users {
				tw.AppendRow(table.Row{u.ID, u.Username, u.FullName, joinRoles(u.Roles), u.Email})
			}
			tw.AppendFooter(table.Row{"", "", "", "合计", len(users)})
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "number", "n", 5, "要插入的员工数量")
	return cmd
}

func newChannelsCommand(ctx *seedContext) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "channels",
		Short: "插入随机频道及默认时段",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := ctx.seeder.Channels(n)
			if err != nil {
				return err
			}

			tw := newTable("频道 ID", "频道", "时段", "岗位", "午场")
			for _, r := range results {
				for _, p := range r.Periods {
					tw.AppendRow(table.Row{r.Channel.ID, r.Channel.Name, p.StartTime.String() + "-" + p.EndTime.String(), p.For, p.Noon})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "number", "n", 1, "要插入的频道数量")
	return cmd
}

func newWeekCommand(ctx *seedContext) *cobra.Command {
	var (
		channelID int64
		from      string
		assign    bool
		seedValue int64
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "按时段模板生成一周班次，可选自动排班",
		RunE: func(cmd *cobra.Command, args []string) error {
			monday, err := time.Parse(domain.DateLayout, from)
			if err != nil {
				return fmt.Errorf("日期格式错误: %s", from)
			}

			parameters := scheduler.DefaultParameters()
			parameters.Seed = seedValue

			result, err := ctx.seeder.Week(channelID, monday, assign, parameters)
			if err != nil {
				return err
			}

			tw := newTable("频道 ID", "开始日期", "新建班次", "已分配")
			tw.AppendRow(table.Row{channelID, from, result.Created, result.Assigned})
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}

	cmd.Flags().Int64Var(&channelID, "channel", 0, "频道 ID")
	cmd.Flags().StringVar(&from, "from", "", "开始日期，格式 2006-01-02")
	cmd.Flags().BoolVar(&assign, "assign", false, "是否用自动排班填入负责人")
	cmd.Flags().Int64Var(&seedValue, "seed", 0, "自动排班的随机种子，0 表示随机")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newTable(headers ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return tw
}

func joinRoles(roles []domain.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}
