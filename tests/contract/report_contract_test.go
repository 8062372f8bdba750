package contract_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sahay-platform/insights-engine/internal/models"
	"github.com/sahay-platform/insights-engine/internal/privacy"
	"github.com/sahay-platform/insights-engine/internal/repository"
	"github.com/sahay-platform/insights-engine/internal/service"
	"github.com/sahay-platform/insights-engine/internal/tabular"
)

func TestReportDocumentContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "report_document.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open("file:report_contract?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Pattern{}, &models.Report{}))

	store := tabular.NewStore()
	at := time.Now().Add(-2 * time.Hour)
	students := make([]tabular.Row, 0, 6)
	wellness := make([]tabular.Row, 0, 6)
	learning := make([]tabular.Row, 0, 6)
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("S%02d", i)
		students = append(students, tabular.Row{"student_id": id, "language_pref": "hi", "age_band": "18-20"})
		wellness = append(wellness, tabular.Row{
			"session_id":    fmt.Sprintf("WS%02d", i),
			"student_id":    id,
			"created_at":    at.Add(time.Duration(i) * time.Minute),
			"mood_score":    4.0,
			"anxiety_score": 9.0,
			"screener_type": "GAD-7",
			"total_score":   15.0,
			"risk_level":    "L3",
		})
		learning = append(learning, tabular.Row{
			"session_id":          fmt.Sprintf("LS%02d", i),
			"student_id":          id,
			"course_id":           "C1",
			"topic":               "algebra",
			"duration_minutes":    30.0,
			"quiz_score":          45.0,
			"comprehension_level": "low",
			"focus_score":         4.0,
			"created_at":          at.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, store.Load(tabular.TableStudents, students))
	require.NoError(t, store.Load(tabular.TableWellnessSessions, wellness))
	require.NoError(t, store.Load(tabular.TableLearningSessions, learning))

	filter := privacy.NewKAnonymityFilter(5)
	validate := validator.New(validator.WithRequiredStructEnabled())
	detector := service.NewPatternDetector(filter, zerolog.Nop())
	patterns := repository.NewPatternRepository(db, validate, filter.K())
	reports := repository.NewReportRepository(db)

	svc := service.NewReportService(store, detector, filter, patterns, reports, nil, time.Minute, zerolog.Nop())

	document, err := svc.Generate(context.Background(), 7, "C1")
	require.NoError(t, err)
	require.NotEmpty(t, document.Patterns)

	body, err := json.Marshal(document)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
