package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstLine(s string) string {
	return strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
}

// splitIDs pulls split ids out of "txn show" output.
func splitIDs(show string) []string {
	var ids []string
	for _, line := range strings.Split(show, "\n") {
		if strings.HasPrefix(line, "  ") {
			ids = append(ids, strings.Fields(line)[0])
		}
	}
	return ids
}

func TestTxn_AddBalanced(t *testing.T) {
	b := newBook(t)
	id := firstLine(b.must("txn", "add", "--desc", "Lunch", "--date", "2026-03-02",
		"--debit", "Dining=9.99", "--credit", "Checking Account=9.99"))
	require.NotEmpty(t, id)

	show := b.must("txn", "show", id)
	assert.Contains(t, show, "2026-03-02  Lunch  USD")
	assert.Contains(t, show, "Expenses:Dining")
	assert.Len(t, splitIDs(show), 2)
	assert.NotContains(t, show, "(auto)")

	assert.Contains(t, b.must("balance", "Dining"), "$9.99")
	assert.Contains(t, b.must("balance", "Checking Account"), "9.99")
}

func TestTxn_LoneSplitIsBalanced(t *testing.T) {
	b := newBook(t)
	res, err := b.run("txn", "add", "--desc", "Farmers market", "--debit", "Groceries=20")
	require.NoError(t, err, res.stderr)
	assert.Contains(t, res.stderr, "balanced with CREDIT 20.00")

	show := b.must("txn", "show", firstLine(res.stdout))
	assert.Contains(t, show, "Imbalance-USD (auto)")

	assert.NotContains(t, b.must("account", "list"), "Imbalance-USD")
	assert.Contains(t, b.must("account", "list", "--all"), "Imbalance-USD")
}

func TestTxn_SingleEntryFromEnv(t *testing.T) {
	b := newBook(t)
	b.must("account", "add", "Coffee", "--type", "expense", "--parent", "Expenses", "--default-transfer", "Cash in Wallet")

	res, err := b.run("txn", "add", "--debit", "Coffee=3.50")
	require.NoError(t, err, res.stderr)
	assert.NotContains(t, b.must("txn", "show", firstLine(res.stdout)), "(auto)")

	b.env = []string{"POCKETBOOK_DOUBLE_ENTRY=false"}
	res, err = b.run("txn", "add", "--debit", "Coffee=3.50")
	require.NoError(t, err, res.stderr)
	assert.Contains(t, b.must("txn", "show", firstLine(res.stdout)), "(auto)")
}

func TestTxn_RejectsPlaceholder(t *testing.T) {
	b := newBook(t)
	_, err := b.run("txn", "add", "--debit", "Expenses=5", "--credit", "Salary=5")
	require.Error(t, err)
}

func TestTxn_RemoveSplitAndDelete(t *testing.T) {
	b := newBook(t)
	id := firstLine(b.must("txn", "add", "--debit", "Rent=1200", "--credit", "Checking Account=1200"))
	splits := splitIDs(b.must("txn", "show", id))
	require.Len(t, splits, 2)

	res, err := b.run("txn", "rm-split", id, splits[1])
	require.NoError(t, err, res.stderr)
	assert.Contains(t, res.stderr, "balanced with")
	assert.Contains(t, b.must("txn", "show", id), "(auto)")

	_, err = b.run("txn", "rm-split", id, splits[0])
	require.Error(t, err, "the last real split cannot be removed")

	b.must("txn", "delete", id)
	_, err = b.run("txn", "show", id)
	require.Error(t, err)
}

func TestTxn_CloneTemplate(t *testing.T) {
	b := newBook(t)
	tmpl := firstLine(b.must("txn", "add", "--desc", "Rent", "--date", "2026-01-01", "--every", "1M",
		"--debit", "Rent=900", "--credit", "Checking Account=900"))
	assert.Contains(t, b.must("txn", "show", tmpl), "every: 1M")

	clone := firstLine(b.must("txn", "clone", tmpl))
	assert.NotEqual(t, tmpl, clone)
	assert.Contains(t, b.must("txn", "show", clone), "2026-02-01  Rent")
	assert.Contains(t, b.must("balance", "Rent"), "1,800.00")
}

func TestBalance_SubtreeAndWindow(t *testing.T) {
	b := newBook(t)
	b.must("txn", "add", "--date", "2026-01-15", "--debit", "Checking Account=1000", "--credit", "Salary=1000")
	b.must("txn", "add", "--date", "2026-02-15", "--debit", "Savings Account=250", "--credit", "Salary=250")

	assert.Contains(t, b.must("balance", "--subtree", "Assets"), "1,250.00")
	assert.Contains(t, b.must("balance", "--subtree", "--to", "2026-01-31", "Assets"), "1,000.00")
	assert.Contains(t, b.must("balance", "--from", "2026-02-15", "--to", "2026-02-15", "Salary"), "250.00")

	own := b.must("balance", "Assets")
	assert.Contains(t, own, "0.00", "a placeholder owns nothing")

	_, err := b.run("balance", "--from", "15/02/2026", "Salary")
	require.Error(t, err)
}

func TestAccount_AddMoveDelete(t *testing.T) {
	b := newBook(t)
	id := firstLine(b.must("account", "add", "Pets", "--type", "EXPENSE", "--parent", "Expenses"))
	require.NotEmpty(t, id)
	assert.Contains(t, b.must("account", "list"), "Expenses:Pets")

	b.must("account", "move", "Pets", "--top")
	list := b.must("account", "list")
	assert.NotContains(t, list, "Expenses:Pets")

	_, err := b.run("account", "move", "Expenses", "--to", "Groceries")
	require.Error(t, err, "moving a parent under its child is a cycle")

	b.must("txn", "add", "--debit", "Pets=40", "--credit", "Checking Account=40")
	b.must("account", "delete", "Pets", "--splits", "move", "--split-target", "Groceries")
	assert.NotContains(t, b.must("account", "list"), "Pets")
	assert.Contains(t, b.must("balance", "Groceries"), "$40.00")

	_, err = b.run("account", "delete", "Groceries", "--splits", "move")
	require.Error(t, err, "move needs a target")
}

func TestAccount_DeleteCascade(t *testing.T) {
	b := newBook(t)
	b.must("txn", "add", "--debit", "Utilities=80", "--credit", "Checking Account=80")
	b.must("account", "delete", "Expenses", "--splits", "imbalance", "--children", "delete")

	list := b.must("account", "list", "--all")
	assert.NotContains(t, list, "Utilities")
	assert.Contains(t, list, "Imbalance-USD")
	assert.Contains(t, b.must("balance", "Imbalance-USD"), "$80.00")
}

func TestReport(t *testing.T) {
	b := newBook(t)
	b.must("txn", "add", "--debit", "Checking Account=3000", "--credit", "Salary=3000")
	b.must("txn", "add", "--debit", "Groceries=120", "--credit", "Credit Card=120")

	out := b.must("report")
	assert.Contains(t, out, "    Checking Account")
	assert.Contains(t, out, "Assets (USD)")
	assert.Contains(t, out, "$3,000.00")
	assert.Contains(t, out, "$120.00")
}

func TestChart_ExportImport(t *testing.T) {
	src := newBook(t)
	src.must("account", "add", "Brokerage", "--type", "STOCK", "--parent", "Assets", "--default-transfer", "Checking Account")
	csvPath := filepath.Join(t.TempDir(), "chart.csv")
	src.must("chart", "export", csvPath)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "account_id,name,type"))

	dst := newBook(t, "--empty")
	assert.Contains(t, dst.must("chart", "import", csvPath), "Imported 19 accounts (0 already present)")
	assert.Contains(t, dst.must("chart", "import", csvPath), "Imported 0 accounts (19 already present)")
	assert.Contains(t, dst.must("account", "list"), "Assets:Brokerage")

	want := strings.Split(strings.TrimSpace(src.must("chart", "export")), "\n")
	got := strings.Split(strings.TrimSpace(dst.must("chart", "export")), "\n")
	assert.ElementsMatch(t, want, got)
}

func TestTxn_MalformedID(t *testing.T) {
	b := newBook(t)
	res, err := b.run("txn", "show", "not-an-id")
	require.Error(t, err)
	assert.Contains(t, res.stderr, "invalid identifier")
}
