package cmd

import (
	"context"
	"log"
	"strings"

	"github.com/spigell/job-radar/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage tracked companies",
}

var companyAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Start tracking a company",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withServices(func(ctx context.Context, svc *services, logger *zap.Logger) {
			company, err := svc.store.CreateCompany(ctx, strings.Join(args, " "))
			if err != nil {
				logger.Fatal("adding a company", zap.Error(err))
			}
			logger.Info("company added", zap.String("id", company.ID), zap.String("name", company.Name))
		})
	},
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked companies",
	Run: func(_ *cobra.Command, _ []string) {
		withServices(func(ctx context.Context, svc *services, logger *zap.Logger) {
			companies, err := svc.store.ListCompanies(ctx)
			if err != nil {
				logger.Fatal("listing companies", zap.Error(err))
			}
			for _, c := range companies {
				fields := []zap.Field{zap.String("id", c.ID), zap.String("status", string(c.Status))}
				if c.CareerPageURL != nil {
					fields = append(fields, zap.String("career_page_url", *c.CareerPageURL))
				}
				logger.Info(c.Name, fields...)
			}
			logger.Info("listed companies", zap.Int("count", len(companies)))
		})
	},
}

var companyDiscoverCmd = &cobra.Command{
	Use:   "discover ID",
	Short: "Find the career page of a company",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withServices(func(ctx context.Context, svc *services, logger *zap.Logger) {
			pageURL, err := svc.finder.Discover(ctx, args[0])
			if err != nil {
				logger.Fatal("discovering the career page", zap.Error(err))
			}
			logger.Info("career page found", zap.String("career_page_url", pageURL))
		})
	},
}

var companyScrapeCmd = &cobra.Command{
	Use:   "scrape ID",
	Short: "Scrape job postings from the career page of a company",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withServices(func(ctx context.Context, svc *services, logger *zap.Logger) {
			n, err := svc.scraper.Scrape(ctx, args[0])
			if err != nil {
				logger.Fatal("scraping jobs", zap.Error(err))
			}
			logger.Info("jobs scraped", zap.Int("count", n))
		})
	},
}

func init() {
	rootCmd.AddCommand(companyCmd)
	companyCmd.AddCommand(companyAddCmd, companyListCmd, companyDiscoverCmd, companyScrapeCmd)
}

// withServices builds the logger, config and services, runs fn and releases everything.
func withServices(fn func(ctx context.Context, svc *services, logger *zap.Logger)) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	svc, err := newServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing services", zap.Error(err))
	}
	defer svc.Close()

	fn(ctx, svc, logger)
}
