package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
)

// fixtureNode mirrors one search edge node of the upstream GraphQL payload.
type fixtureNode = json.RawMessage

type graphQLRequest struct {
	Variables struct {
		SearchTitlesFilter struct {
			SearchQuery string `json:"searchQuery"`
		} `json:"searchTitlesFilter"`
		First int `json:"first"`
	} `json:"variables"`
}

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "mock-justwatch.json", "path to mock data file keyed by title")
		verbose = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.WithError(err).Fatal("read mock data")
	}

	var payload map[string][]fixtureNode
	if err := json.Unmarshal(file, &payload); err != nil {
		logger.WithError(err).Fatal("parse mock data")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		title := req.Variables.SearchTitlesFilter.SearchQuery
		nodes, ok := payload[title]
		logger.WithFields(logrus.Fields{"title": title, "hit": ok}).Debug("mock: search")
		if !ok {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		if req.Variables.First > 0 && len(nodes) > req.Variables.First {
			nodes = nodes[:req.Variables.First]
		}

		edges := make([]map[string]fixtureNode, 0, len(nodes))
		for _, n := range nodes {
			edges = append(edges, map[string]fixtureNode{"node": n})
		}
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"popularTitles": map[string]interface{}{"edges": edges},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	addr := ":" + *port
	logger.WithFields(logrus.Fields{"addr": addr, "titles": len(payload)}).Info("mock justwatch listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}
