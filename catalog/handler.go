package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/brucePedroGomes/rocketShoes/cart"
)

// NewHandler serves f over HTTP:
//
//	GET /products        all products
//	GET /products/{id}   one product
//	GET /stock/{id}      stock level of one product
func NewHandler(f Fixture) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/products", func(w http.ResponseWriter, _ *http.Request) {
		products := f.Products
		if products == nil {
			products = []cart.Product{}
		}
		writeJSON(w, http.StatusOK, products)
	}).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		p, ok := f.product(pathID(r))
		if !ok {
			writeJSON(w, http.StatusNotFound, struct{}{})
			return
		}
		writeJSON(w, http.StatusOK, p)
	}).Methods(http.MethodGet)
	r.HandleFunc("/stock/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		s, ok := f.stock(pathID(r))
		if !ok {
			writeJSON(w, http.StatusNotFound, struct{}{})
			return
		}
		writeJSON(w, http.StatusOK, s)
	}).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, struct{}{})
	})
	return r
}

func pathID(r *http.Request) int {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return -1
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithField("err", err).Error("write response")
	}
}
