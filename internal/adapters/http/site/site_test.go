package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a router with the storefront registered", t, func() {
		r := chi.NewRouter()
		r.Get("/api/ping", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("pong"))
		})
		Register(context.Background(), r)

		serve := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		Convey("Then / serves the page", func() {
			w := serve("/")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			So(w.Body.String(), ShouldContainSubstring, "My Game Store")
			So(w.Body.String(), ShouldContainSubstring, "Oyunu Ara...")
			So(w.Body.String(), ShouldContainSubstring, `id="pagejump"`)
		})

		Convey("And the script and stylesheet are served", func() {
			js := serve("/app.js")
			So(js.Code, ShouldEqual, http.StatusOK)
			So(js.Body.String(), ShouldContainSubstring, "/api/catalog")
			So(js.Body.String(), ShouldContainSubstring, "Oyunlar yüklenemedi")
			So(js.Body.String(), ShouldContainSubstring, "Görseller yüklenemedi")
			So(js.Body.String(), ShouldContainSubstring, "AbortController")
			So(js.Body.String(), ShouldContainSubstring, "mine !== seq")
			So(js.Body.String(), ShouldContainSubstring, `"Sayfa " + n`)

			css := serve("/style.css")
			So(css.Code, ShouldEqual, http.StatusOK)
			So(css.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
		})

		Convey("And explicit routes keep priority", func() {
			w := serve("/api/ping")
			So(w.Body.String(), ShouldEqual, "pong")
		})

		Convey("And unknown files are not found", func() {
			So(serve("/missing.js").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSiteHandlerWithNilRouter(t *testing.T) {
	Convey("Given a nil router", t, func() {
		Convey("Then registering panics", func() {
			So(func() {
				Register(context.Background(), nil)
			}, ShouldPanic)
		})
	})
}
