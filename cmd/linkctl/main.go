package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type suggestion struct {
	ID         string  `json:"id"`
	SourceID   string  `json:"source_id"`
	SourceType string  `json:"source_type"`
	TargetID   string  `json:"target_id"`
	TargetType string  `json:"target_type"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

type client struct {
	server  string
	session string
	http    *http.Client
	last    []suggestion
	names   map[string]string
}

func main() {
	server := flag.String("server", "http://localhost:3210", "fived server URL")
	session := flag.String("session", "", "session id for dismissals (random if empty)")
	flag.Parse()

	if *session == "" {
		*session = uuid.New().String()
	}
	c := &client{
		server:  strings.TrimRight(*server, "/"),
		session: *session,
		http:    &http.Client{Timeout: 30 * time.Second},
		names:   map[string]string{},
	}

	fmt.Println("fived link review")
	fmt.Printf("Server: %s | Session: %s\n", c.server, c.session)
	fmt.Println("Commands: suggest [entity-type entity-id], accept N, dismiss N, search TEXT, status, exit")
	fmt.Println("---")

	c.status()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		case "status":
			c.status()
		case "suggest":
			c.suggest(fields[1:])
		case "accept":
			c.act("accept", fields[1:])
		case "dismiss":
			c.act("dismiss", fields[1:])
		case "search":
			c.search(strings.Join(fields[1:], " "))
		default:
			printError("Unknown command %q", fields[0])
		}
	}
}

func (c *client) do(method, path string, body interface{}, out interface{}) error {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.server+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", c.session)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) status() {
	var health map[string]interface{}
	if err := c.do(http.MethodGet, "/api/health", nil, &health); err != nil {
		printError("Failed to fetch status: %v", err)
		return
	}
	for _, k := range []string{"graph", "knowledge", "vector"} {
		icon := "\033[31m✗\033[0m"
		if health[k] == true {
			icon = "\033[32m✓\033[0m"
		}
		fmt.Printf("  %s %s\n", icon, k)
	}
}

// loadNames caches entity names so suggestions print readably.
func (c *client) loadNames() {
	for _, coll := range []string{"characters", "worlds", "projects"} {
		var items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := c.do(http.MethodGet, "/api/"+coll, nil, &items); err != nil {
			continue
		}
		for _, it := range items {
			c.names[it.ID] = it.Name
		}
	}
}

func (c *client) name(id string) string {
	if n, ok := c.names[id]; ok && n != "" {
		return n
	}
	return id
}

func (c *client) suggest(args []string) {
	path := "/api/suggestions"
	if len(args) == 2 {
		path = "/api/" + strings.TrimSuffix(args[0], "s") + "s/" + url.PathEscape(args[1]) + "/suggestions"
	}
	var out []suggestion
	if err := c.do(http.MethodGet, path, nil, &out); err != nil {
		printError("Failed to fetch suggestions: %v", err)
		return
	}
	c.last = out
	if len(out) == 0 {
		fmt.Println("No suggestions.")
		return
	}
	c.loadNames()
	for i, s := range out {
		fmt.Printf("  %2d. \033[36m%3.0f%%\033[0m %s -> %s (%s)\n      %s\n",
			i+1, s.Confidence*100, c.name(s.SourceID), c.name(s.TargetID), s.Kind, s.Reason)
	}
}

func (c *client) pick(args []string) (suggestion, bool) {
	if len(args) != 1 {
		printError("Expected a suggestion number")
		return suggestion{}, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(c.last) {
		printError("No suggestion %q; run suggest first", args[0])
		return suggestion{}, false
	}
	return c.last[n-1], true
}

func (c *client) act(action string, args []string) {
	s, ok := c.pick(args)
	if !ok {
		return
	}
	var err error
	if action == "accept" {
		err = c.do(http.MethodPost, "/api/suggestions/accept", s, nil)
	} else {
		err = c.do(http.MethodPost, "/api/suggestions/dismiss", map[string]string{"suggestion_id": s.ID}, nil)
	}
	if err != nil {
		printError("%s failed: %v", action, err)
		return
	}
	verb := "Accepted"
	if action == "dismiss" {
		verb = "Dismissed"
	}
	fmt.Printf("%s %s -> %s\n", verb, c.name(s.SourceID), c.name(s.TargetID))
}

func (c *client) search(q string) {
	if q == "" {
		printError("Usage: search TEXT")
		return
	}
	var hits []struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Type  string  `json:"type"`
		Score float64 `json:"score"`
	}
	if err := c.do(http.MethodGet, "/api/search?q="+url.QueryEscape(q), nil, &hits); err != nil {
		printError("Search failed: %v", err)
		return
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, h := range hits {
		fmt.Printf("  %-9s %s \033[90m(%s)\033[0m\n", h.Type, h.Name, h.ID)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\033[31m"+format+"\033[0m\n", args...)
}
