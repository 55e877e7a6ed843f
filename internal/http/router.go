package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router wraps the standard library http.ServeMux; no third-party routing
// dependency needed for a path surface this size.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/auth/register", methodOnly(http.MethodPost, h.Register))
	r.Handle("/api/v1/auth/login", methodOnly(http.MethodPost, h.Login))
	r.Handle("/api/v1/auth/logout", methodOnly(http.MethodPost, m.Require(h.Logout)))
}

func (r *Router) RegisterPatientRoutes(h *PatientHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/patients", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			m.RequireDoctor(h.List)(w, req)
		case http.MethodPost:
			m.RequireDoctor(h.Add)(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	r.Handle("/api/v1/patients/claim", methodOnly(http.MethodPost, m.RequireDoctor(h.Claim)))

	// /api/v1/patients/{id} and /api/v1/patients/{id}/history
	r.Handle("/api/v1/patients/", m.Require(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/patients/")
		switch {
		case rest == "":
			w.WriteHeader(http.StatusNotFound)
		case !strings.Contains(rest, "/"):
			h.Get(w, req, rest)
		case strings.HasSuffix(rest, "/history"):
			h.SkippedHistory(w, req, strings.TrimSuffix(rest, "/history"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	r.Handle("/api/v1/profile", methodOnly(http.MethodPut, m.RequirePatient(h.UpdateProfile)))
	r.Handle("/api/v1/profile/notification-settings", methodOnly(http.MethodPut, m.RequirePatient(h.UpdateNotificationSettings)))
	r.Handle("/api/v1/profile/fcm-token", methodOnly(http.MethodPost, m.Require(h.SaveFCMToken)))
}

func (r *Router) RegisterDoctorRoutes(h *DoctorHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/profile/doctor", m.RequireDoctor(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.Profile(w, req)
		case http.MethodPut:
			h.UpdateProfile(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func (r *Router) RegisterMedicationRoutes(h *MedicationHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/medications", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			m.RequireDoctor(h.Create)(w, req)
		case http.MethodGet:
			m.RequireDoctor(h.ListForDoctor)(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// /api/v1/medications/{id} and /api/v1/medications/patient/{patientId}
	r.Handle("/api/v1/medications/", m.Require(func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/medications/")
		if patientID := strings.TrimPrefix(rest, "patient/"); patientID != rest {
			if req.Method != http.MethodGet || patientID == "" || strings.Contains(patientID, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			h.ListForPatient(w, req, patientID)
			return
		}
		if rest == "" || strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodPut:
			m.RequireDoctor(func(w http.ResponseWriter, req *http.Request) {
				h.Update(w, req, rest)
			})(w, req)
		case http.MethodDelete:
			m.RequireDoctor(func(w http.ResponseWriter, req *http.Request) {
				h.Delete(w, req, rest)
			})(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func (r *Router) RegisterIntakeRoutes(h *IntakeHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/intakes", methodOnly(http.MethodPost, m.RequirePatient(h.Record)))
	r.Handle("/api/v1/intakes/feed", methodOnly(http.MethodGet, m.RequirePatient(h.Feed)))

	// /api/v1/intakes/{id}/taken and /api/v1/intakes/{id}/skipped
	r.Handle("/api/v1/intakes/", methodOnly(http.MethodPost, m.RequirePatient(func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/intakes/")
		switch {
		case strings.HasSuffix(rest, "/taken"):
			h.MarkTaken(w, req, strings.TrimSuffix(rest, "/taken"))
		case strings.HasSuffix(rest, "/skipped"):
			h.MarkSkipped(w, req, strings.TrimSuffix(rest, "/skipped"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})))
}

func (r *Router) RegisterLabRoutes(h *LabHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/lab-results", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			m.RequireDoctor(h.CreateOrder)(w, req)
		case http.MethodGet:
			m.RequireDoctor(h.ListForDoctor)(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/api/v1/lab-results/", m.Require(func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/lab-results/")
		if patientID := strings.TrimPrefix(rest, "patient/"); patientID != rest {
			if req.Method != http.MethodGet || patientID == "" || strings.Contains(patientID, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			h.ListForPatient(w, req, patientID)
			return
		}
		switch {
		case strings.HasSuffix(rest, "/tests") && req.Method == http.MethodPut:
			m.RequireDoctor(func(w http.ResponseWriter, req *http.Request) {
				h.UpdateTests(w, req, strings.TrimSuffix(rest, "/tests"))
			})(w, req)
		case strings.HasSuffix(rest, "/status") && req.Method == http.MethodPut:
			m.RequireDoctor(func(w http.ResponseWriter, req *http.Request) {
				h.SetStatus(w, req, strings.TrimSuffix(rest, "/status"))
			})(w, req)
		case strings.HasSuffix(rest, "/export") && req.Method == http.MethodGet:
			h.Export(w, req, strings.TrimSuffix(rest, "/export"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func (r *Router) RegisterChatRoutes(h *ChatHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/chat/messages", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			m.Require(h.Send)(w, req)
		case http.MethodGet:
			m.Require(h.List)(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func (r *Router) RegisterNotificationRoutes(h *NotificationHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/notifications", methodOnly(http.MethodGet, m.RequirePatient(h.Feed)))
	r.Handle("/api/v1/notifications/read-all", methodOnly(http.MethodPost, m.RequirePatient(h.MarkAllRead)))

	// /api/v1/notifications/{id}/read
	r.Handle("/api/v1/notifications/", methodOnly(http.MethodPost, m.RequirePatient(func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/notifications/")
		if !strings.HasSuffix(rest, "/read") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.MarkRead(w, req, strings.TrimSuffix(rest, "/read"))
	})))
}

func (r *Router) RegisterDashboardRoutes(h *DashboardHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/dashboard", methodOnly(http.MethodGet, m.RequireDoctor(h.DoctorDashboard)))
}

func (r *Router) RegisterLiveRoutes(h *LiveHandler, m *AuthMiddleware) {
	r.Handle("/api/v1/live", methodOnly(http.MethodGet, m.Require(h.Serve)))
}
