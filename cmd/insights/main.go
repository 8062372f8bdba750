package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sahay-platform/insights-engine/internal/config"
	"github.com/sahay-platform/insights-engine/internal/database"
	"github.com/sahay-platform/insights-engine/internal/models"
	"github.com/sahay-platform/insights-engine/internal/privacy"
	"github.com/sahay-platform/insights-engine/internal/repository"
	"github.com/sahay-platform/insights-engine/internal/service"
	"github.com/sahay-platform/insights-engine/internal/tabular"
)

func main() {
	classID := flag.String("class", "", "restrict the report to one class/course")
	export := flag.Bool("export", false, "write an anonymized wellness CSV export")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.Pattern{}, &models.Report{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer cache.Close()
	}

	store := tabular.NewStore()
	for _, table := range []string{tabular.TableStudents, tabular.TableWellnessSessions, tabular.TableLearningSessions} {
		count, err := loadTable(store, cfg.DataDir, table)
		if err != nil {
			log.Fatalf("failed to load table %s: %v", table, err)
		}
		logger.Info().Str("table", table).Int("rows", count).Msg("table loaded")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	filter := privacy.NewKAnonymityFilter(cfg.KThreshold)
	pseudonymizer := privacy.NewPseudonymizer(cfg.PseudonymSalt)

	patternRepo := repository.NewPatternRepository(db, validate, cfg.KThreshold)
	reportRepo := repository.NewReportRepository(db)

	detector := service.NewPatternDetector(filter, logger)
	reportService := service.NewReportService(store, detector, filter, patternRepo, reportRepo, cache, cfg.ReportCacheTTL, logger)
	exportService := service.NewExportService(store, pseudonymizer, filter, cfg.RetentionDays, logger)

	ctx := context.Background()
	report, err := reportService.Generate(ctx, cfg.TimeWindowDays, *classID)
	if err != nil {
		log.Fatalf("report generation failed: %v", err)
	}
	logger.Info().
		Str("report_id", report.ReportID).
		Int("patterns", len(report.Patterns)).
		Int("wellness_sessions", report.WellnessMetrics.TotalSessions).
		Int("learning_sessions", report.LearningMetrics.TotalSessions).
		Msg("report generated")

	if *export {
		if err := writeExport(exportService, cfg.ExportDir, logger); err != nil {
			log.Fatalf("export failed: %v", err)
		}
	}
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return database.ConnectPostgres(cfg.DatabaseURL)
	}
	return database.ConnectSQLite(cfg.DatabasePath)
}

// writeExport serializes the anonymized wellness table to a timestamped CSV.
// File I/O stays out of the engine; the command is the downstream collaborator.
func writeExport(exportService service.ExportService, dir string, logger zerolog.Logger) error {
	table, err := exportService.WellnessTable(time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("wellness_sessions_export_%s.csv", time.Now().UTC().Format("20060102_150405")))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if len(table.Header) > 0 {
		if err := writer.Write(table.Header); err != nil {
			return fmt.Errorf("failed to write export header: %w", err)
		}
	}
	for _, record := range table.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write export record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}

	logger.Info().Str("path", path).Int("rows", len(table.Records)).Msg("anonymized export written")
	return nil
}
