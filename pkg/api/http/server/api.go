package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/guidepost/launchpad/internal/utils"
	"github.com/guidepost/launchpad/pkg/api"
	"github.com/guidepost/launchpad/pkg/api/http/common"
	"github.com/guidepost/launchpad/pkg/structs"
)

const (
	wait = 30 * time.Second
)

type Server struct {
	addr        string
	portalURL   string
	authToken   string
	sessionMins int64
	debug       bool
	svc         api.API
	exit        chan os.Signal
	httpserver  *http.Server
}

func (s *Server) ServeForever(svc api.API) error {
	s.svc = svc

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)

	// calling systems
	caller := router.NewRoute().Subrouter()
	caller.HandleFunc(common.API_JOBS, s.createJob).Methods(http.MethodPost)
	caller.HandleFunc(common.API_JOB_CANCEL, s.cancelJob).Methods(http.MethodPost)
	caller.Use(s.authMiddleware)

	// customers & applications
	router.HandleFunc(common.PAD_START, s.startJob).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc(common.PAD_START_KEYED, s.startJob).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc(common.TASK_START, s.startTask).Methods(http.MethodPost)
	router.HandleFunc(common.TASK_SUBMIT, s.submitTask).Methods(http.MethodPost)
	router.HandleFunc(common.TASK_REJECT, s.rejectTask).Methods(http.MethodPost)

	if s.debug {
		log.Println("Debug enabled, adding per-request logging middleware")
		router.Use(loggingMiddleware)
	}

	s.httpserver = &http.Server{
		Handler:      router,
		Addr:         s.addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	go func() {
		log.Println("Listening on", s.httpserver.Addr)
		if err := s.httpserver.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()

	signal.Notify(s.exit, os.Interrupt)
	defer s.Close()
	<-s.exit

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	s.httpserver.Shutdown(ctx)
	os.Exit(0)
	return nil
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	cjr := &structs.CreateJobRequest{}
	err := unmarshalJson(w, r, cjr)
	if err != nil {
		return
	}

	resp, err := s.svc.CreateJob(r.Context(), cjr)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	cjr := &structs.CancelJobRequest{}
	if r.ContentLength > 0 {
		if err := unmarshalJson(w, r, cjr); err != nil {
			return
		}
	}

	jobID := mux.Vars(r)["jobId"]
	if !utils.IsValidID(jobID) {
		http.Error(w, "bad job id", http.StatusBadRequest)
		return
	}

	err := s.svc.CancelJob(r.Context(), jobID, cjr.Metadata)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(&common.CancelResponse{Canceled: true})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) startJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	req := &structs.StartJobRequest{}
	if r.Method == http.MethodPost && r.ContentLength > 0 {
		if err := unmarshalJson(w, r, req); err != nil {
			return
		}
	}

	visit := &structs.JobVisit{
		JobKey:       vars["jobKey"],
		AccessKey:    vars["accessKey"],
		Origin:       origin(r),
		SessionToken: sessionToken(r, vars["jobKey"]),
		LoginCode:    req.LoginCode,
		Metadata:     req.Metadata,
	}

	nav, err := s.svc.StartJob(r.Context(), visit)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}
	s.writeNav(w, r, vars["jobKey"], nav)
}

func (s *Server) startTask(w http.ResponseWriter, r *http.Request) {
	visit, jobKey, err := s.taskVisit(w, r)
	if err != nil {
		return
	}

	resp, nav, err := s.svc.StartTask(r.Context(), visit)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}
	if nav != nil {
		s.writeNav(w, r, jobKey, nav)
		return
	}

	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) submitTask(w http.ResponseWriter, r *http.Request) {
	visit, jobKey, err := s.taskVisit(w, r)
	if err != nil {
		return
	}

	nav, err := s.svc.SubmitTask(r.Context(), visit)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}
	s.writeNav(w, r, jobKey, nav)
}

func (s *Server) rejectTask(w http.ResponseWriter, r *http.Request) {
	visit, jobKey, err := s.taskVisit(w, r)
	if err != nil {
		return
	}

	nav, err := s.svc.RejectTask(r.Context(), visit)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}
	s.writeNav(w, r, jobKey, nav)
}

// taskVisit assembles a TaskVisit from a task request. Submit & reject
// bodies share a shape, so one helper covers all three endpoints.
func (s *Server) taskVisit(w http.ResponseWriter, r *http.Request) (*structs.TaskVisit, string, error) {
	body := &struct {
		JobKey   string       `json:"job_key"`
		Output   []structs.KV `json:"output,omitempty"`
		Reason   string       `json:"reason,omitempty"`
		Metadata string       `json:"metadata,omitempty"`
	}{}
	if r.ContentLength > 0 {
		if err := unmarshalJson(w, r, body); err != nil {
			return nil, "", err
		}
	}

	return &structs.TaskVisit{
		TaskKey:      mux.Vars(r)["taskKey"],
		Origin:       origin(r),
		SessionToken: sessionToken(r, body.JobKey),
		Metadata:     body.Metadata,
		Output:       body.Output,
		Reason:       body.Reason,
	}, body.JobKey, nil
}

// writeNav translates a Navigation decision into cookies plus a redirect.
// Targets starting with "/" are portal pages.
func (s *Server) writeNav(w http.ResponseWriter, r *http.Request, jobKey string, nav *structs.Navigation) {
	if nav.SetToken != "" {
		// the cookie lives exactly as long as the token it carries; the
		// server-wide session length only covers navs minted without one
		maxAge := int(nav.TokenTTL / time.Second)
		if maxAge <= 0 {
			maxAge = int(s.sessionMins * 60)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     jobKey,
			Value:    nav.SetToken,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	} else if nav.ClearCookie {
		http.SetCookie(w, &http.Cookie{
			Name:     jobKey,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	target := nav.Target
	if strings.HasPrefix(target, "/") {
		target = s.portalURL + target
	}
	if nav.Kind == structs.NavError && nav.Detail != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "status=" + nav.Detail
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// origin is the page the browser came from; used for source checks.
func origin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" {
		return o
	}
	return r.Header.Get("Referer")
}

// sessionToken pulls the job's session cookie, if the browser sent one.
// Cookies are named by job key so one browser can hold several jobs.
func sessionToken(r *http.Request, jobKey string) string {
	if jobKey == "" {
		return ""
	}
	c, err := r.Cookie(jobKey)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) Close() error {
	s.exit <- os.Interrupt
	return nil
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func NewServer(addr, portalURL, authToken string, sessionMins int64, debug bool) *Server {
	return &Server{
		addr:        addr,
		portalURL:   portalURL,
		authToken:   authToken,
		sessionMins: sessionMins,
		debug:       debug,
		exit:        make(chan os.Signal, 1),
	}
}
