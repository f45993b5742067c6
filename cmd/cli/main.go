package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v6/osfs"

	"github.com/aetherdb/aetherdb"
	"github.com/aetherdb/aetherdb/audit"
	"github.com/aetherdb/aetherdb/auth"
	"github.com/aetherdb/aetherdb/db"
	"github.com/aetherdb/aetherdb/store"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the interactive shell state.
type CLI struct {
	instance    *aetherdb.Instance
	recorder    *audit.FileRecorder
	history     []string
	historyFile string
}

func main() {
	auditPath := flag.String("audit", "", "Audit log file (disabled if empty)")
	snapshotPassword := flag.String("snapshot-password", "", "Password for encrypted snapshots")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	flag.Parse()

	printBanner()

	cfg := aetherdb.Config{}
	var recorder *audit.FileRecorder
	if *auditPath != "" {
		dir := filepath.Dir(*auditPath)
		recorder = audit.NewFileRecorder(osfs.New(dir), filepath.Base(*auditPath))
		cfg.Recorder = recorder
	}
	if *snapshotPassword != "" {
		cfg.Snapshots = store.NewEncryptedStore(*snapshotPassword)
	}

	instance, err := aetherdb.Open(cfg)
	if err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}

	if current, ok := instance.Engine.CurrentUser(); ok {
		fmt.Printf("%sLogged in as %s%s\n", SuccessColor, current.Username, ResetColor)
	}

	cli := &CLI{
		instance:    instance,
		recorder:    recorder,
		historyFile: getHistoryPath(),
	}
	cli.loadHistory()

	if *sqlFile != "" {
		if err := cli.importFile(*sqlFile); err != nil {
			fmt.Printf("%sError importing file: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		return
	}

	cli.run()
}

func printBanner() {
	fmt.Println()
	fmt.Printf("%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s║            aetherdb v%-8s         ║%s\n", BoldColor, PromptColor, Version, ResetColor)
	fmt.Printf("%s%s║   In-memory relational data engine    ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
	fmt.Println("Type \\help for commands, \\q to exit")
	fmt.Println()
}

func (cli *CLI) run() {
	reader := bufio.NewReader(os.Stdin)
	var multiLineBuffer strings.Builder

	for {
		fmt.Print(cli.getPrompt(multiLineBuffer.Len() > 0))

		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Printf("\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			return
		}

		input = strings.TrimSuffix(input, "\n")
		input = strings.TrimSuffix(input, "\r")
		if strings.TrimSpace(input) == "" {
			continue
		}

		if multiLineBuffer.Len() == 0 && strings.HasPrefix(strings.TrimSpace(input), "\\") {
			cli.handleCommand(strings.TrimSpace(input))
			continue
		}

		// SQL statements accumulate until a terminating semicolon.
		multiLineBuffer.WriteString(input)
		trimmed := strings.TrimSpace(multiLineBuffer.String())
		if !strings.HasSuffix(trimmed, ";") {
			multiLineBuffer.WriteString(" ")
			continue
		}

		statement := strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
		multiLineBuffer.Reset()
		if statement == "" {
			continue
		}

		cli.addToHistory(statement + ";")

		result, err := cli.instance.Engine.Execute(statement)
		if err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			result.Display()
		}
	}
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}
	user := ""
	if current, ok := cli.instance.Engine.CurrentUser(); ok {
		user = current.Username + "@"
	}
	return fmt.Sprintf("%s%saetherdb>%s ", PromptColor, user, ResetColor)
}

func (cli *CLI) handleCommand(input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "\\q", "\\quit", "\\exit":
		fmt.Printf("%sGoodbye!%s\n", SuccessColor, ResetColor)
		cli.saveHistory()
		os.Exit(0)

	case "\\help", "\\?":
		cli.printHelp()

	case "\\dt":
		cli.showTables()

	case "\\d":
		if len(parts) > 1 {
			cli.describeTable(parts[1])
		} else {
			usage("\\d <table>")
		}

	case "\\du":
		cli.showUsers()

	case "\\whoami":
		if current, ok := cli.instance.Engine.CurrentUser(); ok {
			role, _ := cli.instance.Users.RoleOf(current.Username)
			fmt.Printf("%s (%s)\n", current.Username, role)
		} else {
			fmt.Println("not logged in")
		}

	case "\\login":
		if len(parts) < 2 || len(parts) > 3 {
			usage("\\login <user> [password]")
			return
		}
		password := ""
		if len(parts) == 3 {
			password = parts[2]
		}
		if err := cli.instance.Engine.Login(parts[1], password); err != nil {
			fail(err)
		} else {
			fmt.Printf("%s✓ Logged in as %s%s\n", SuccessColor, parts[1], ResetColor)
		}

	case "\\adduser":
		if len(parts) != 4 {
			usage("\\adduser <user> <password> <role>")
			return
		}
		if err := cli.instance.AddUser(parts[1], parts[2], auth.Role(parts[3])); err != nil {
			fail(err)
		} else {
			fmt.Printf("%s✓ User %s created%s\n", SuccessColor, parts[1], ResetColor)
		}

	case "\\passwd":
		if len(parts) != 2 {
			usage("\\passwd <newpassword>")
			return
		}
		if err := cli.instance.ChangePassword(parts[1]); err != nil {
			fail(err)
		} else {
			fmt.Printf("%s✓ Password changed%s\n", SuccessColor, ResetColor)
		}

	case "\\role":
		if len(parts) != 3 {
			usage("\\role <user> <role>")
			return
		}
		if err := cli.instance.SetRole(parts[1], auth.Role(parts[2])); err != nil {
			fail(err)
		} else {
			fmt.Printf("%s✓ Role of %s set to %s%s\n", SuccessColor, parts[1], parts[2], ResetColor)
		}

	case "\\grant":
		if len(parts) != 4 {
			usage("\\grant <perm> <table> <user>")
			return
		}
		if err := cli.instance.Engine.Grant(parts[2], parts[3], parts[1]); err != nil {
			fail(err)
		} else {
			fmt.Printf("%s✓ Granted %s on %s to %s%s\n", SuccessColor, parts[1], parts[2], parts[3], ResetColor)
		}

	case "\\revoke":
		if len(parts) != 4 {
			usage("\\revoke <perm> <table> <user>")
			return
		}
		if err := cli.instance.Engine.Revoke(parts[2], parts[3], parts[1]); err != nil {
			fail(err)
		} else {
			fmt.Printf("%s✓ Revoked %s on %s from %s%s\n", SuccessColor, parts[1], parts[2], parts[3], ResetColor)
		}

	case "\\save":
		if len(parts) != 2 {
			usage("\\save <path>")
			return
		}
		if err := cli.instance.Engine.Save(parts[1]); err != nil {
			fail(err)
		} else {
			fmt.Printf("%s✓ Saved to %s%s\n", SuccessColor, parts[1], ResetColor)
		}

	case "\\load":
		if len(parts) != 2 {
			usage("\\load <path>")
			return
		}
		if err := cli.instance.Engine.Load(parts[1]); err != nil {
			fail(err)
		} else {
			fmt.Printf("%s✓ Loaded from %s%s\n", SuccessColor, parts[1], ResetColor)
		}

	case "\\log":
		n := 20
		if len(parts) > 1 {
			if parts[1] == "all" {
				n = 0
			} else if parsed, err := strconv.Atoi(parts[1]); err == nil {
				n = parsed
			}
		}
		cli.showLog(n)

	case "\\i", "\\import":
		if len(parts) > 1 {
			if err := cli.importFile(parts[1]); err != nil {
				fail(err)
			}
		} else {
			usage("\\i <file.sql>")
		}

	case "\\history":
		cli.printHistory()

	case "\\clear":
		fmt.Print("\033[H\033[2J")

	case "\\version":
		fmt.Printf("aetherdb version %s\n", Version)

	default:
		fmt.Printf("%s✗ Unknown command: %s (type \\help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}
}

func usage(s string) {
	fmt.Printf("%s✗ Usage: %s%s\n", ErrorColor, s, ResetColor)
}

func fail(err error) {
	fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
}

func (cli *CLI) printHelp() {
	fmt.Println()
	fmt.Printf("%s%sMeta Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  \\dt                          List tables")
	fmt.Println("  \\d <table>                   Describe a table (schema and permissions)")
	fmt.Println("  \\du                          List users and roles")
	fmt.Println("  \\login <user> [password]     Log in")
	fmt.Println("  \\adduser <user> <pw> <role>  Create a user (admin, user or readonly)")
	fmt.Println("  \\passwd <newpassword>        Change your password")
	fmt.Println("  \\role <user> <role>          Change a user's role (admins only)")
	fmt.Println("  \\grant <perm> <table> <user> Grant read, write or admin on a table")
	fmt.Println("  \\revoke <perm> <table> <user> Revoke a table permission")
	fmt.Println("  \\save <path>                 Save an encrypted snapshot")
	fmt.Println("  \\load <path>                 Load an encrypted snapshot")
	fmt.Println("  \\log [n|all]                 Show the last n audit events")
	fmt.Println("  \\whoami                      Show the current user")
	fmt.Println("  \\i <file>                    Execute SQL statements from a file")
	fmt.Println("  \\history                     Show statement history")
	fmt.Println("  \\q                           Quit")
	fmt.Println()
	fmt.Printf("%s%sSQL:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  CREATE TABLE <table> (<column> INT|STR|DATE, ...);")
	fmt.Println("  INSERT INTO <table> (<cols>) VALUES (<vals>);")
	fmt.Println("  SELECT <cols> FROM <table> [WHERE <col> = <val>, ...];")
	fmt.Println("  UPDATE <table> SET <col> = <val>, ... [WHERE ...];")
	fmt.Println("  DELETE FROM <table> [WHERE ...];")
	fmt.Println("  ALTER TABLE <table> RENAME TO <name>;")
	fmt.Println("  ALTER TABLE <table> ADD COLUMN <column> <type>;")
	fmt.Println()
}

func (cli *CLI) showTables() {
	names, err := cli.instance.Engine.Tables()
	if err != nil {
		fail(err)
		return
	}
	table := db.NewTable(os.Stdout)
	table.Header([]string{"table"})
	for _, name := range names {
		table.Row([]string{name})
	}
	table.Render()
}

func (cli *CLI) describeTable(name string) {
	schema, err := cli.instance.Engine.Describe(name)
	if err != nil {
		fail(err)
		return
	}

	table := db.NewTable(os.Stdout)
	table.Header([]string{"column", "type"})
	for _, column := range schema.Columns {
		table.Row([]string{column.Name, column.Type.String()})
	}
	table.Render()

	perms, err := cli.instance.Engine.Permissions(name)
	if err != nil {
		return
	}
	acl := db.NewTable(os.Stdout)
	acl.Header([]string{"user", "permissions"})
	for user, set := range perms {
		var held []string
		for _, perm := range []string{"read", "write", "admin"} {
			if set[perm] {
				held = append(held, perm)
			}
		}
		acl.Row([]string{user, strings.Join(held, ",")})
	}
	acl.Render()
}

func (cli *CLI) showUsers() {
	users := cli.instance.Users.Users()
	table := db.NewTable(os.Stdout)
	table.Header([]string{"user", "role"})
	for name, role := range users {
		table.Row([]string{name, string(role)})
	}
	table.Render()
}

func (cli *CLI) showLog(n int) {
	if cli.recorder == nil {
		fmt.Println("Audit log disabled (start with -audit <file>)")
		return
	}
	events, err := cli.recorder.Tail(n)
	if err != nil {
		fail(err)
		return
	}
	table := db.NewTable(os.Stdout)
	table.Header([]string{"time", "user", "action", "detail"})
	for _, event := range events {
		table.Row([]string{
			event.Time.Format("2006-01-02 15:04:05"),
			event.User,
			event.Action,
			event.Detail,
		})
	}
	table.Render()
}

func (cli *CLI) addToHistory(cmd string) {
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)
	if len(cli.history) > 1000 {
		cli.history = cli.history[len(cli.history)-1000:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Println("No statement history")
		return
	}
	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}
	for i := start; i < len(cli.history); i++ {
		fmt.Printf("  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aetherdb_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}
	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}
	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	start := 0
	if len(cli.history) > 1000 {
		start = len(cli.history) - 1000
	}
	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}

// importFile reads and executes SQL statements from a file.
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	statements := splitStatements(string(data))
	successCount := 0
	errorCount := 0

	for i, stmt := range statements {
		result, err := cli.instance.Engine.Execute(stmt)
		if err != nil {
			fmt.Printf("%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(stmt, 50), ResetColor)
			fmt.Printf("      Error: %v\n", err)
			errorCount++
			continue
		}
		successCount++
		switch r := result.(type) {
		case db.CommitResult:
			var details []string
			if r.TablesCreated > 0 {
				details = append(details, fmt.Sprintf("%d table created", r.TablesCreated))
			}
			if r.TablesAltered > 0 {
				details = append(details, fmt.Sprintf("%d table altered", r.TablesAltered))
			}
			if r.RecordsWritten > 0 {
				details = append(details, fmt.Sprintf("%d written", r.RecordsWritten))
			}
			if r.RecordsUpdated > 0 {
				details = append(details, fmt.Sprintf("%d updated", r.RecordsUpdated))
			}
			if r.RecordsDeleted > 0 {
				details = append(details, fmt.Sprintf("%d deleted", r.RecordsDeleted))
			}
			detailStr := ""
			if len(details) > 0 {
				detailStr = " (" + strings.Join(details, ", ") + ")"
			}
			fmt.Printf("%s[%d] ✓ %s%s%s\n", SuccessColor, i+1, truncate(stmt, 50), detailStr, ResetColor)
		case db.QueryResult:
			fmt.Printf("%s[%d] ✓ %s (%d rows)%s\n", SuccessColor, i+1, truncate(stmt, 50), r.RecordsRead, ResetColor)
		}
	}

	fmt.Printf("\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, successCount, errorCount, ResetColor)
	return nil
}

// splitStatements splits SQL text on semicolons, respecting quoted
// strings and skipping -- comments.
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if ch == '\'' || ch == '"' {
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				inString = false
			}
		}

		if !inString && ch == '-' && i+1 < len(content) && content[i+1] == '-' {
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}

		if !inString && ch == ';' {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	stmt := strings.TrimSpace(current.String())
	if stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}

// truncate shortens a string to max length with ellipsis.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
