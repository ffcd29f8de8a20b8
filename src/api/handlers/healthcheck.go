package handlers

import (
	"fmt"
	"net/http"
)

func Healthcheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		fmt.Fprintf(w, "Im alive!")
	} else {
		fmt.Fprintf(w, "Method not available: %s", r.Method)
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, map[string]string{"message": "Hello World"}, http.StatusOK)
}
