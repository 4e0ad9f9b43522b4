package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/term"
	"kindred/internal/graph"
	"kindred/internal/journal"
	"kindred/internal/sentiment"
	"kindred/pkg/config"
	"kindred/pkg/logger"
)

func main() {
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	store := graph.NewLoggedStore(repo, repo)
	analyzer := sentiment.NewLLMAnalyzer(cfg.LiteLLMURL, cfg.OpenRouterAPIKey, cfg.ModelID)
	svc := journal.NewService(store, analyzer)

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("kindred — journal & find your kindred spirits")

	for {
		if svc.CurrentUser() == nil {
			if done := welcomeMenu(ctx, svc, reader); done {
				return
			}
			continue
		}
		if done := mainMenu(ctx, svc, reader); done {
			return
		}
	}
}

func welcomeMenu(ctx context.Context, svc *journal.Service, reader *bufio.Reader) bool {
	fmt.Println("\n1) Login  2) Register  0) Quit")
	switch readLine(reader, "> ") {
	case "1":
		username := readLine(reader, "Username: ")
		password := readPassword("Password: ")
		if err := svc.Login(ctx, username, password); err != nil {
			fmt.Println("Login failed:", err)
			return false
		}
		fmt.Println("Welcome back,", svc.CurrentUser().Username)
	case "2":
		username := readLine(reader, "Username: ")
		password := readPassword("Password: ")
		contact := readLine(reader, "Contact info (shown to matches you confirm): ")
		if err := svc.Register(ctx, username, password, contact); err != nil {
			fmt.Println("Registration failed:", err)
			return false
		}
		fmt.Println("Account created. You can log in now.")
	case "0":
		return true
	}
	return false
}

func mainMenu(ctx context.Context, svc *journal.Service, reader *bufio.Reader) bool {
	fmt.Println("\n1) Write entry  2) Read entries  3) Delete entry  4) Find matches")
	fmt.Println("5) My connections  6) Update contact info  7) Change password  8) Logout  0) Quit")

	switch readLine(reader, "> ") {
	case "1":
		writeEntry(ctx, svc, reader)
	case "2":
		showEntries(ctx, svc, reader)
	case "3":
		deleteEntry(ctx, svc, reader)
	case "4":
		findMatches(ctx, svc, reader)
	case "5":
		showConnections(ctx, svc)
	case "6":
		contact := readLine(reader, "New contact info: ")
		if ok, err := svc.UpdateContactInfo(ctx, contact); err != nil || !ok {
			fmt.Println("Update failed:", err)
		} else {
			fmt.Println("Contact info updated.")
		}
	case "7":
		password := readPassword("New password: ")
		if ok, err := svc.ChangePassword(ctx, password); err != nil || !ok {
			fmt.Println("Password change failed:", err)
		} else {
			fmt.Println("Password changed.")
		}
	case "8":
		svc.Logout()
	case "0":
		return true
	}
	return false
}

func writeEntry(ctx context.Context, svc *journal.Service, reader *bufio.Reader) {
	content := readLine(reader, "Entry: ")
	if strings.TrimSpace(content) == "" {
		return
	}
	entry, err := svc.WriteEntry(ctx, content)
	if err != nil {
		fmt.Println("Could not save entry:", err)
		return
	}
	fmt.Printf("Saved. Topics: %s\n", renderTopics(entry.Topics))
}

func showEntries(ctx context.Context, svc *journal.Service, reader *bufio.Reader) {
	collection, err := svc.EntriesOn(ctx, readDate(reader))
	if err != nil {
		fmt.Println("Could not load entries:", err)
		return
	}
	if len(collection.Entries) == 0 {
		fmt.Println("No entries for", collection.Date.Format("2006-01-02"))
		return
	}
	for i, entry := range collection.Entries {
		fmt.Printf("%d) [%s] %s\n   topics: %s\n",
			i+1, entry.Date.Format("15:04"), entry.Content, renderTopics(entry.Topics))
	}
}

func deleteEntry(ctx context.Context, svc *journal.Service, reader *bufio.Reader) {
	collection, err := svc.EntriesOn(ctx, readDate(reader))
	if err != nil || len(collection.Entries) == 0 {
		fmt.Println("Nothing to delete.")
		return
	}
	for i, entry := range collection.Entries {
		fmt.Printf("%d) [%s] %s\n", i+1, entry.Date.Format("15:04"), entry.Content)
	}
	index, err := strconv.Atoi(readLine(reader, "Delete which? "))
	if err != nil || index < 1 || index > len(collection.Entries) {
		return
	}
	if ok, err := svc.DeleteEntry(ctx, collection.Entries[index-1]); err != nil || !ok {
		fmt.Println("Delete failed:", err)
	} else {
		fmt.Println("Deleted.")
	}
}

func findMatches(ctx context.Context, svc *journal.Service, reader *bufio.Reader) {
	raw := readLine(reader, "Sentiment (positive/negative/neutral): ")
	polarity, ok := sentiment.Parse(raw)
	if !ok {
		fmt.Println("Unknown sentiment:", raw)
		return
	}

	matches, err := svc.FindMatches(ctx, polarity)
	if err != nil {
		fmt.Println("Matching failed:", err)
		return
	}
	if len(matches) == 0 {
		fmt.Println("No matches in the past week.")
		return
	}
	for i, match := range matches {
		fmt.Printf("%d) %s — also %s about %q\n",
			i+1, match.Username, match.Topic.Sentiment, match.Topic.Keyword)
	}

	choice := readLine(reader, "Connect with (number, empty to skip): ")
	if choice == "" {
		return
	}
	index, err := strconv.Atoi(choice)
	if err != nil || index < 1 || index > len(matches) {
		return
	}

	guid, err := svc.Connect(ctx, matches[index-1])
	if err != nil {
		fmt.Println("Connection failed:", err)
		return
	}
	fmt.Printf("Connected with %s (%s).\nShare this token to verify the match: %s\n",
		matches[index-1].Username, matches[index-1].ContactInfo, guid)
}

func showConnections(ctx context.Context, svc *journal.Service) {
	connections, err := svc.Connections(ctx)
	if err != nil {
		fmt.Println("Could not load connections:", err)
		return
	}
	if len(connections) == 0 {
		fmt.Println("No connections yet.")
		return
	}
	for _, c := range connections {
		fmt.Printf("- %s (%s): %s/%s on %s, token %s\n",
			c.Username, c.ContactInfo, c.Topic.Keyword, c.Topic.Sentiment,
			c.Date.Format("2006-01-02"), c.GUID)
	}
}

func readLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword(prompt string) string {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func readDate(reader *bufio.Reader) time.Time {
	raw := readLine(reader, "Date (YYYY-MM-DD, empty for today): ")
	if raw == "" {
		return time.Now().UTC()
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		fmt.Println("Unparseable date, using today.")
		return time.Now().UTC()
	}
	return date
}

func renderTopics(topics []graph.Topic) string {
	if len(topics) == 0 {
		return "(none)"
	}
	parts := make([]string, 0, len(topics))
	for _, t := range topics {
		parts = append(parts, fmt.Sprintf("%s/%s", t.Keyword, t.Sentiment))
	}
	return strings.Join(parts, ", ")
}
