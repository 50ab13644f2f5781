package main

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	"github.com/johnquangdev/sales-mentor/internal/infrastructure/database"
	"github.com/johnquangdev/sales-mentor/pkg/jwt"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "coachctl dev")
	assert.Contains(t, out, "commit: none")
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"version", "migrate", "token", "seed"})

	migrateCmd, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	assert.Equal(t, "down", migrateCmd.Name())
	assert.NotNil(t, migrateCmd.Flags().Lookup("max"))
}

func TestTokenMint(t *testing.T) {
	t.Setenv("JWT_SESSION_SECRET", "coachctl-secret")
	t.Setenv("PUBLIC_WS_URL", "wss://coach.example.com/v1/ws")

	callID, companyID, agentID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	out, err := execute(t, "token", "mint", "--call", callID, "--company", companyID, "--agent", agentID)
	require.NoError(t, err)

	match := regexp.MustCompile(`token:\s+(\S+)`).FindStringSubmatch(out)
	require.Len(t, match, 2, out)

	claims, err := jwt.NewManager("coachctl-secret", time.Hour).ValidateSessionToken(match[1])
	require.NoError(t, err)
	assert.Equal(t, callID, claims.CallID)
	assert.Equal(t, companyID, claims.CompanyID)
	assert.Equal(t, agentID, claims.AgentID)
	assert.Contains(t, out, "wss://coach.example.com/v1/ws?call_id="+callID)
}

func TestTokenMint_Validation(t *testing.T) {
	t.Setenv("JWT_SESSION_SECRET", "coachctl-secret")

	_, err := execute(t, "token", "mint", "--call", uuid.NewString())
	assert.Error(t, err, "company and agent are required")

	_, err = execute(t, "token", "mint", "--call", "abc", "--company", uuid.NewString(), "--agent", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--call must be a UUID")
}

func TestRunSeed(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, db.AutoMigrate(&entities.Company{}, &entities.Agent{}, &entities.Call{}))

	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	tokens := jwt.NewManager("seed-secret", time.Hour)
	require.NoError(t, runSeed(cmd, db, tokens, "ws://localhost:8080/v1/ws", seedOptions{
		company: "Acme", agent: "Ana", email: "ana@acme.local", title: "Discovery",
	}))

	var call entities.Call
	require.NoError(t, db.First(&call).Error)
	assert.Equal(t, entities.CallStatusRunning, call.Status)
	assert.Equal(t, "Discovery", call.Title)
	assert.Contains(t, buf.String(), "call_id:    "+call.ID.String())
	assert.True(t, strings.Contains(buf.String(), "token:"))
}

func TestPrintMigrationStatus(t *testing.T) {
	found, err := database.MigrationSource().FindMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, found)

	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	printMigrationStatus(cmd, found, map[string]bool{found[0].Id: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(found))
	assert.True(t, strings.HasPrefix(lines[0], "applied"))
	assert.True(t, strings.HasPrefix(lines[1], "pending"))
}
