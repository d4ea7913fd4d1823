package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"traveleasy/apperr"
	db "traveleasy/db/db"
	"traveleasy/geo"
	"traveleasy/session"
	"traveleasy/trip"
)

const dateLayout = "2006-01-02"

type registerRequest struct {
	FullName        string `json:"nomeCompleto"`
	Phone           string `json:"celular"`
	Email           string `json:"email"`
	Password        string `json:"senha"`
	ConfirmPassword string `json:"confirmarSenha"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type sessionView struct {
	Token       string `json:"token"`
	DisplayName string `json:"nomeExibicao"`
	Email       string `json:"email"`
}

type createTripRequest struct {
	Destination string `json:"destino"`
	PlaceID     string `json:"placeId"`
	Budget      string `json:"orcamento"`
	Start       string `json:"inicio"`
	End         string `json:"fim"`
}

type updateTripRequest struct {
	Budget *string `json:"orcamento"`
	Start  *string `json:"inicio"`
	End    *string `json:"fim"`
}

type expenseInput struct {
	Name   string `json:"nome"`
	Amount string `json:"valor"`
}

type appendExpensesRequest struct {
	Expenses []expenseInput `json:"despesas"`
}

type periodView struct {
	Start string `json:"inicio"`
	End   string `json:"fim"`
}

type tripView struct {
	ID              uuid.UUID               `json:"id"`
	Destination     string                  `json:"destino"`
	Budget          float64                 `json:"orcamento"`
	BudgetFormatted string                  `json:"orcamentoFormatado"`
	Period          periodView              `json:"periodo"`
	CreatedAt       time.Time               `json:"criadaEm"`
	Days            map[string][]db.Expense `json:"dias"`
}

type tripDetailView struct {
	tripView
	ItineraryDays []string `json:"diasRoteiro"`
}

func newSessionView(sess *session.Session) sessionView {
	return sessionView{
		Token:       sess.Token,
		DisplayName: sess.DisplayName,
		Email:       sess.Email,
	}
}

func newTripView(t db.Trip) tripView {
	days := t.Days
	if days == nil {
		days = map[string][]db.Expense{}
	}
	return tripView{
		ID:              t.ID,
		Destination:     t.Destination,
		Budget:          t.Budget,
		BudgetFormatted: trip.FormatBRL(t.Budget),
		Period: periodView{
			Start: t.Period.Start.Format(dateLayout),
			End:   t.Period.End.Format(dateLayout),
		},
		CreatedAt: t.CreatedAt,
		Days:      days,
	}
}

func newTripDetailView(detail *trip.TripDetail) tripDetailView {
	days := make([]string, 0, len(detail.Days))
	for _, day := range detail.Days {
		days = append(days, day.Format(dateLayout))
	}
	return tripDetailView{
		tripView:      newTripView(detail.Trip),
		ItineraryDays: days,
	}
}

// writeError maps the error taxonomy onto HTTP status codes. Remote
// failures are reported as bad gateway so clients can tell a backing
// service outage from their own mistake.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if kind, ok := apperr.KindOf(err); ok {
		switch kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindAuth:
			status = http.StatusUnauthorized
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindRemote:
			status = http.StatusBadGateway
		}
	}
	c.JSON(status, gin.H{"erro": err.Error()})
}

type handler struct {
	sessions *session.Service
	trips    *trip.Service
	cities   *geo.Client
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("Requisição inválida."))
		return
	}
	sess, err := h.sessions.Register(c.Request.Context(), req.FullName, req.Phone, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionView(sess))
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("Requisição inválida."))
		return
	}
	sess, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(sess))
}

func (h *handler) logout(c *gin.Context) {
	sess := currentSession(c)
	if sess != nil {
		h.sessions.Logout(sess.Token)
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) passwordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("Requisição inválida."))
		return
	}
	if err := h.sessions.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensagem": "E-mail de redefinição enviado! Verifique sua caixa de entrada."})
}

// searchCities never fails: lookup errors already degrade to an empty
// suggestion list inside the client.
func (h *handler) searchCities(c *gin.Context) {
	suggestions := h.cities.Search(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"cidades": suggestions})
}

func (h *handler) createTrip(c *gin.Context) {
	var req createTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("Requisição inválida."))
		return
	}
	period, err := parsePeriod(req.Start, req.End)
	if err != nil {
		writeError(c, err)
		return
	}
	created, err := h.trips.CreateTrip(c.Request.Context(), currentSession(c), req.Destination, req.PlaceID, req.Budget, period)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTripView(*created))
}

func (h *handler) listTrips(c *gin.Context) {
	trips, err := h.trips.Trips(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]tripView, 0, len(trips))
	for _, t := range trips {
		views = append(views, newTripView(t))
	}
	c.JSON(http.StatusOK, gin.H{"viagens": views})
}

func (h *handler) getTrip(c *gin.Context) {
	tripID, err := tripIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	detail, err := h.trips.TripByID(c.Request.Context(), currentSession(c), tripID, tripLoader(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTripDetailView(detail))
}

func (h *handler) updateTrip(c *gin.Context) {
	tripID, err := tripIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req updateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("Requisição inválida."))
		return
	}
	var period *db.Period
	if req.Start != nil || req.End != nil {
		if req.Start == nil || req.End == nil {
			writeError(c, apperr.Validation("Período inválido."))
			return
		}
		parsed, err := parsePeriod(*req.Start, *req.End)
		if err != nil {
			writeError(c, err)
			return
		}
		period = &parsed
	}
	updated, err := h.trips.UpdateTrip(c.Request.Context(), currentSession(c), tripID, req.Budget, period)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTripView(*updated))
}

func (h *handler) appendExpenses(c *gin.Context) {
	tripID, err := tripIDParam(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req appendExpensesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("Requisição inválida."))
		return
	}
	expenses := make([]db.Expense, 0, len(req.Expenses))
	for _, input := range req.Expenses {
		amount, err := trip.ParseBudgetBRL(input.Amount)
		if err != nil {
			writeError(c, apperr.Validation("Por favor, preencha todos os campos."))
			return
		}
		expenses = append(expenses, db.Expense{Name: input.Name, Amount: amount})
	}
	dayKey := c.Param("day")
	if err := h.trips.AppendExpenses(c.Request.Context(), currentSession(c), tripID, dayKey, expenses); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// tripLoader returns the request-scoped batched loader injected by
// the middleware, or nil outside a request pipeline.
func tripLoader(c *gin.Context) *db.TripDataLoader {
	value, ok := c.Get(string(db.DataLoaderKeyTrip))
	if !ok {
		return nil
	}
	loader, ok := value.(*db.TripDataLoader)
	if !ok {
		return nil
	}
	return loader
}

func tripIDParam(c *gin.Context) (uuid.UUID, error) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("Viagem não encontrada.")
	}
	return tripID, nil
}

func parsePeriod(start, end string) (db.Period, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return db.Period{}, apperr.Validation("Período inválido.")
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return db.Period{}, apperr.Validation("Período inválido.")
	}
	return db.Period{Start: startDate, End: endDate}, nil
}
