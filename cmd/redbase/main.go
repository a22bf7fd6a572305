// Command redbase wires the PF, RM, IX, SM and QL managers together in
// dependency order and runs a small scripted exercise of the resulting
// library surface. It is not a parser or a shell (spec.md §1) — there
// is no lexer, no grammar, no REPL; DDL and DML are issued as direct
// Go calls, the way a caller embedding this module would issue them.
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/David-Chen31/RedBase-Development/internal/config"
	"github.com/David-Chen31/RedBase-Development/internal/ix"
	"github.com/David-Chen31/RedBase-Development/internal/pf"
	"github.com/David-Chen31/RedBase-Development/internal/ql"
	"github.com/David-Chen31/RedBase-Development/internal/rc"
	"github.com/David-Chen31/RedBase-Development/internal/rm"
	"github.com/David-Chen31/RedBase-Development/internal/sm"
	"github.com/David-Chen31/RedBase-Development/internal/types"
	"github.com/David-Chen31/RedBase-Development/pkg/logging"
)

func main() {
	cfg := config.FromEnv()

	logger, err := logging.NewLogger("redbase", cfg.Level())
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.DBDir, 0755); err != nil {
		logger.Fatal("failed to create database directory", zap.Error(err), zap.String("dir", cfg.DBDir))
	}

	pfMgr := pf.NewManager(pf.Config{
		BufferFrames: cfg.BufferFrames,
		Logger:       logger.Named("pf"),
	})
	if err := pfMgr.SetDatabase(cfg.DBDir, cfg.QuotaPages); err != nil {
		logger.Fatal("failed to select database", zap.Error(err))
	}

	rmMgr := rm.NewManager(pfMgr, logger.Named("rm"))
	ixMgr := ix.NewManager(pfMgr, logger.Named("ix"))
	smMgr := sm.NewManager(rmMgr, ixMgr, cfg.DBDir, logger.Named("sm"))

	fresh := !catalogExists(cfg.DBDir)
	if fresh {
		if err := smMgr.Bootstrap(); err != nil {
			logger.Fatal("failed to bootstrap catalog", zap.Error(err))
		}
	} else if err := smMgr.Open(); err != nil {
		logger.Fatal("failed to open existing catalog", zap.Error(err))
	}
	defer smMgr.Close()

	exec := ql.NewExecutor(smMgr, rmMgr, ixMgr, logger.Named("ql"))

	if fresh {
		if err := seed(smMgr, exec); err != nil {
			logger.Fatal("failed to seed demo tables", zap.Error(err))
		}
	}

	if err := runDemoQuery(exec); err != nil {
		logger.Fatal("demo query failed", zap.Error(err))
	}
}

// catalogExists reports whether dbDir already holds a relcat file from
// a previous run, so repeated invocations against the same REDBASE_DB_DIR
// open the existing catalog instead of re-bootstrapping over it.
func catalogExists(dbDir string) bool {
	_, err := os.Stat(dbDir + "/relcat")
	return err == nil
}

func seed(smMgr *sm.Manager, exec *ql.Executor) error {
	if err := smMgr.CreateTable("employee", []sm.AttrDef{
		{Name: "id", Type: types.AttrInt, Length: 4},
		{Name: "dept", Type: types.AttrInt, Length: 4},
		{Name: "name", Type: types.AttrString, Length: 24},
	}); err != nil {
		return err
	}
	if err := smMgr.CreateIndex("employee", "id"); err != nil {
		return err
	}

	rows := []struct {
		id   int32
		dept int32
		name string
	}{
		{1, 10, "alice"},
		{2, 10, "bob"},
		{3, 20, "carol"},
	}
	for _, r := range rows {
		_, err := exec.Insert("employee", []ql.Value{
			{Type: types.AttrInt, Int: r.id},
			{Type: types.AttrInt, Int: r.dept},
			{Type: types.AttrString, Str: r.name},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func runDemoQuery(exec *ql.Executor) error {
	dept := int32(10)
	op, err := exec.Select(ql.SelectRequest{
		Attrs:     []ql.AttrSelector{{AttrName: "*"}},
		Relations: []string{"employee"},
		Conditions: []ql.CondSpec{
			{
				Left:  ql.Operand{Attr: &ql.AttrRef{AttrName: "dept"}},
				Op:    types.EqOp,
				Right: ql.Operand{Literal: &ql.Value{Type: types.AttrInt, Int: dept}},
			},
		},
	})
	if err != nil {
		return err
	}
	if err := op.Open(); err != nil {
		return err
	}
	defer op.Close()

	schema := op.Schema()
	for {
		data, _, err := op.GetNext()
		if err == rc.QlEof {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(formatRow(schema, data))
	}
}

func formatRow(schema []types.DataAttrInfo, data []byte) string {
	out := ""
	for i, info := range schema {
		if i > 0 {
			out += " "
		}
		field := data[info.Offset : info.Offset+info.AttrLength]
		switch info.AttrType {
		case types.AttrInt:
			out += fmt.Sprintf("%s=%d", info.AttrName, int32(binary.LittleEndian.Uint32(field)))
		case types.AttrFloat:
			out += fmt.Sprintf("%s=%v", info.AttrName, math.Float32frombits(binary.LittleEndian.Uint32(field)))
		case types.AttrString:
			out += fmt.Sprintf("%s=%q", info.AttrName, trimNulBytes(field))
		}
	}
	return out
}

func trimNulBytes(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}
