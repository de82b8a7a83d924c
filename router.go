package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/marcus-crane/mediamon/playback"
)

type sessionStatus struct {
	AppID         string `json:"appId"`
	SessionActive bool   `json:"sessionActive"`
}

type volumeStatus struct {
	Volume float32 `json:"volume"`
}

func renderJSONMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	res := map[string]string{"message": message}
	json.NewEncoder(w).Encode(res)
}

func renderJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// sessionCommand runs fn against the attached session. Without one the request is a no-op.
func sessionCommand(manager *playback.Manager, fn func(w http.ResponseWriter, r *http.Request, s *playback.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			renderJSONMessage(w, http.StatusMethodNotAllowed, "That method is invalid for this endpoint")
			return
		}
		s := manager.Current()
		if s == nil {
			renderJSONMessage(w, http.StatusOK, "No media session is attached")
			return
		}
		fn(w, r, s)
	}
}

func RegisterRoutes(mux *http.ServeMux, manager *playback.Manager, stream http.Handler, origins []string) http.Handler {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "mediamon is watching for %s.\nSubscribe to <a href=\"/events\">/events</a> for updates.\n", manager.TargetApp())
	})

	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		renderJSONMessage(w, http.StatusOK, "This is the base of the mediamon API")
	})

	mux.HandleFunc("/api/media/session", func(w http.ResponseWriter, r *http.Request) {
		status := sessionStatus{AppID: manager.TargetApp()}
		if s := manager.Current(); s != nil {
			status.AppID = s.AppID()
			status.SessionActive = true
		}
		renderJSON(w, status)
	})

	simple := map[string]func(*playback.Session){
		"play":     (*playback.Session).Play,
		"pause":    (*playback.Session).Pause,
		"next":     (*playback.Session).SkipNext,
		"previous": (*playback.Session).SkipPrevious,
	}
	for name, command := range simple {
		command := command
		mux.HandleFunc("/api/media/"+name, sessionCommand(manager, func(w http.ResponseWriter, r *http.Request, s *playback.Session) {
			command(s)
			renderJSONMessage(w, http.StatusAccepted, "Command was sent")
		}))
	}

	mux.HandleFunc("/api/media/position", sessionCommand(manager, func(w http.ResponseWriter, r *http.Request, s *playback.Session) {
		position, err := strconv.ParseUint(r.URL.Query().Get("value"), 10, 64)
		if err != nil {
			renderJSONMessage(w, http.StatusBadRequest, "value must be a non-negative number of ticks")
			return
		}
		s.SetPlaybackPosition(position)
		renderJSONMessage(w, http.StatusAccepted, "Command was sent")
	}))

	mux.HandleFunc("/api/media/refresh", sessionCommand(manager, func(w http.ResponseWriter, r *http.Request, s *playback.Session) {
		switch r.URL.Query().Get("only") {
		case "":
			s.Refresh()
		case "media":
			s.RefreshMediaProperties()
		case "playback":
			s.RefreshPlaybackInfo()
		case "timeline":
			s.RefreshTimelineProperties()
		default:
			renderJSONMessage(w, http.StatusBadRequest, "only must be one of media, playback or timeline")
			return
		}
		renderJSONMessage(w, http.StatusAccepted, "Refresh was queued")
	}))

	mux.HandleFunc("/api/media/volume", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			renderJSON(w, volumeStatus{Volume: manager.Volume()})
		case http.MethodPost:
			sessionCommand(manager, func(w http.ResponseWriter, r *http.Request, s *playback.Session) {
				level, err := strconv.ParseFloat(r.URL.Query().Get("level"), 32)
				if err != nil {
					renderJSONMessage(w, http.StatusBadRequest, "level must be a number between 0 and 1")
					return
				}
				s.SetVolume(float32(level))
				renderJSONMessage(w, http.StatusAccepted, "Volume was sent")
			})(w, r)
		default:
			renderJSONMessage(w, http.StatusMethodNotAllowed, "That method is invalid for this endpoint")
		}
	})

	mux.Handle("/events", stream)
	mux.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})

	return c.Handler(mux)
}
