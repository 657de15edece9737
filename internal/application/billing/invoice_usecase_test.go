package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func newUseCase() (*billing.InvoiceUseCase, *memory.Store) {
	store := memory.NewStore()
	return billing.NewInvoiceUseCase(store, store), store
}

func ptr[T any](v T) *T { return &v }

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// docINV001 documento completo de ejemplo: una factura con una línea.
func docINV001(t *testing.T) dto.InvoiceDocument {
	return dto.InvoiceDocument{
		InvoiceNumber: ptr("INV001"),
		CustomerName:  ptr("John Doe"),
		Date:          ptr("2024-11-12"),
		Details: ptr([]dto.InvoiceDetailDocument{
			{Description: "Product A", Quantity: 2, Price: dec(t, "50.00"), LineTotal: dec(t, "100.00")},
		}),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_PersisteLineasEnOrden(t *testing.T) {
	uc, store := newUseCase()
	doc := docINV001(t)
	*doc.Details = append(*doc.Details,
		dto.InvoiceDetailDocument{Description: "Product B", Quantity: 1, Price: dec(t, "75.00"), LineTotal: dec(t, "75.00")},
		dto.InvoiceDetailDocument{Description: "Product C", Quantity: 3, Price: dec(t, "10.00"), LineTotal: dec(t, "30.00")},
	)

	resp, err := uc.Create(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, resp.Details, 3)
	assert.Equal(t, "Product A", resp.Details[0].Description)
	assert.Equal(t, "Product B", resp.Details[1].Description)
	assert.Equal(t, "Product C", resp.Details[2].Description)

	inv, err := store.GetByNumber(context.Background(), "INV001")
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, 3, store.DetailCount(inv.ID))
}

func TestCreate_RoundTripCampoACampo(t *testing.T) {
	uc, _ := newUseCase()

	resp, err := uc.Create(context.Background(), docINV001(t))
	require.NoError(t, err)

	assert.Equal(t, "INV001", resp.InvoiceNumber)
	assert.Equal(t, "John Doe", resp.CustomerName)
	assert.Equal(t, "2024-11-12", resp.Date)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "Product A", resp.Details[0].Description)
	assert.EqualValues(t, 2, resp.Details[0].Quantity)
	assert.Equal(t, "50.00", resp.Details[0].Price.String())
	assert.Equal(t, "100.00", resp.Details[0].LineTotal.String())
}

func TestCreate_ListaVaciaProduceFacturaSinLineas(t *testing.T) {
	uc, store := newUseCase()
	doc := docINV001(t)
	doc.Details = ptr([]dto.InvoiceDetailDocument{})

	resp, err := uc.Create(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, resp.Details)
	assert.NotNil(t, resp.Details, "details debe serializarse como lista vacía, no null")

	inv, err := store.GetByNumber(context.Background(), "INV001")
	require.NoError(t, err)
	assert.Equal(t, 0, store.DetailCount(inv.ID))
}

func TestCreate_DocumentoVacioReportaTodosLosRequeridos(t *testing.T) {
	uc, _ := newUseCase()

	_, err := uc.Create(context.Background(), dto.InvoiceDocument{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, campo := range []string{"invoice_number", "customer_name", "date", "details"} {
		assert.Contains(t, verr.Fields, campo)
	}
}

func TestCreate_RestriccionesDeCampo(t *testing.T) {
	largo := func(n int) string {
		s := make([]byte, n)
		for i := range s {
			s[i] = 'x'
		}
		return string(s)
	}

	cases := []struct {
		name   string
		mutate func(t *testing.T, d *dto.InvoiceDocument)
		campo  string
	}{
		{
			name:   "invoice_number de más de 20 caracteres",
			mutate: func(t *testing.T, d *dto.InvoiceDocument) { d.InvoiceNumber = ptr(largo(21)) },
			campo:  "invoice_number",
		},
		{
			name:   "customer_name de más de 100 caracteres",
			mutate: func(t *testing.T, d *dto.InvoiceDocument) { d.CustomerName = ptr(largo(101)) },
			campo:  "customer_name",
		},
		{
			name:   "fecha con formato inválido",
			mutate: func(t *testing.T, d *dto.InvoiceDocument) { d.Date = ptr("12/11/2024") },
			campo:  "date",
		},
		{
			name:   "descripción de más de 255 caracteres",
			mutate: func(t *testing.T, d *dto.InvoiceDocument) { (*d.Details)[0].Description = largo(256) },
			campo:  "details[0].description",
		},
		{
			name:   "cantidad negativa",
			mutate: func(t *testing.T, d *dto.InvoiceDocument) { (*d.Details)[0].Quantity = -1 },
			campo:  "details[0].quantity",
		},
		{
			name:   "precio con más de 2 decimales",
			mutate: func(t *testing.T, d *dto.InvoiceDocument) { (*d.Details)[0].Price = dec(t, "50.001") },
			campo:  "details[0].price",
		},
		{
			name:   "line_total con más de 10 dígitos",
			mutate: func(t *testing.T, d *dto.InvoiceDocument) { (*d.Details)[0].LineTotal = dec(t, "123456789.00") },
			campo:  "details[0].line_total",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc, _ := newUseCase()
			doc := docINV001(t)
			tc.mutate(t, &doc)

			_, err := uc.Create(context.Background(), doc)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.campo)
		})
	}
}

func TestCreate_SerializaDecimalesConDosDecimalesFijos(t *testing.T) {
	uc, _ := newUseCase()
	doc := docINV001(t)
	// decimal.Decimal descarta los ceros finales ("50.00" -> "50"); la
	// respuesta debe renderizar siempre dos decimales como NUMERIC(10,2).
	(*doc.Details)[0].Price = dec(t, "50")
	(*doc.Details)[0].LineTotal = dec(t, "100.5")

	resp, err := uc.Create(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "50.00", resp.Details[0].Price.String())
	assert.Equal(t, "100.50", resp.Details[0].LineTotal.String())

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":"50.00"`)
	assert.Contains(t, string(raw), `"line_total":"100.50"`)
}

func TestCreate_CadenasEnBlancoSonInvalidas(t *testing.T) {
	uc, store := newUseCase()
	doc := docINV001(t)
	doc.InvoiceNumber = ptr("")
	doc.CustomerName = ptr("")

	_, err := uc.Create(context.Background(), doc)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "invoice_number")
	assert.Contains(t, verr.Fields, "customer_name")

	// Una factura con invoice_number "" sería inalcanzable para Update.
	inv, err := store.GetByNumber(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, inv)
}

func TestCreate_LineTotalInconsistenteSeAceptaTalCual(t *testing.T) {
	uc, _ := newUseCase()
	doc := docINV001(t)
	// quantity=2, price=50.00, pero line_total=999.99: no hay validación aritmética.
	(*doc.Details)[0].LineTotal = dec(t, "999.99")

	resp, err := uc.Create(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "999.99", resp.Details[0].LineTotal.String())
}

func TestCreate_NumeroDuplicadoFallaComoErrorDePersistencia(t *testing.T) {
	uc, store := newUseCase()

	_, err := uc.Create(context.Background(), docINV001(t))
	require.NoError(t, err)

	doc := docINV001(t)
	doc.CustomerName = ptr("Jane Roe")
	*doc.Details = append(*doc.Details,
		dto.InvoiceDetailDocument{Description: "Product B", Quantity: 1, Price: dec(t, "75.00"), LineTotal: dec(t, "75.00")},
	)
	_, err = uc.Create(context.Background(), doc)
	require.Error(t, err)

	var verr *domain.ValidationError
	assert.NotErrorAs(t, err, &verr, "la unicidad no es un error de validación")
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	// La transacción fallida no deja rastro: la factura original queda
	// intacta y sin líneas huérfanas del intento.
	inv, err := store.GetByNumber(context.Background(), "INV001")
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "John Doe", inv.CustomerName)
	assert.Equal(t, 1, store.DetailCount(inv.ID))
}

// txConFallo envuelve el TxRunner del almacén y hace fallar CreateDetail a
// partir de la línea failOn, para observar el rollback.
type txConFallo struct {
	store  *memory.Store
	failOn int
}

func (t *txConFallo) Run(ctx context.Context, fn func(repository.InvoiceRepository) error) error {
	return t.store.Run(ctx, func(repo repository.InvoiceRepository) error {
		return fn(&repoConFallo{InvoiceRepository: repo, failOn: t.failOn})
	})
}

type repoConFallo struct {
	repository.InvoiceRepository
	llamadas int
	failOn   int
}

func (r *repoConFallo) CreateDetail(ctx context.Context, detail *entity.InvoiceDetail) error {
	r.llamadas++
	if r.llamadas > r.failOn {
		return errors.New("insert invoice detail: conexión perdida")
	}
	return r.InvoiceRepository.CreateDetail(ctx, detail)
}

func TestCreate_FalloAMitadDeTransaccionNoDejaFilasParciales(t *testing.T) {
	store := memory.NewStore()
	uc := billing.NewInvoiceUseCase(&txConFallo{store: store, failOn: 1}, store)

	doc := docINV001(t)
	*doc.Details = append(*doc.Details,
		dto.InvoiceDetailDocument{Description: "Product B", Quantity: 1, Price: dec(t, "75.00"), LineTotal: dec(t, "75.00")},
		dto.InvoiceDetailDocument{Description: "Product C", Quantity: 3, Price: dec(t, "10.00"), LineTotal: dec(t, "30.00")},
	)

	_, err := uc.Create(context.Background(), doc)
	require.Error(t, err)

	// Rollback completo: ni cabecera ni la línea que sí alcanzó a insertarse.
	inv, err := store.GetByNumber(context.Background(), "INV001")
	require.NoError(t, err)
	assert.Nil(t, inv)
}

func TestUpdate_FalloAMitadDeTransaccionConservaElEstadoPrevio(t *testing.T) {
	store := memory.NewStore()
	uc := billing.NewInvoiceUseCase(store, store)
	_, err := uc.Create(context.Background(), docINV001(t))
	require.NoError(t, err)

	// El reemplazo de líneas falla en la segunda: debe sobrevivir el estado
	// original completo, no un borrado a medias.
	ucFallo := billing.NewInvoiceUseCase(&txConFallo{store: store, failOn: 1}, store)
	doc := docINV001(t)
	doc.CustomerName = ptr("Jane Roe")
	doc.Details = ptr([]dto.InvoiceDetailDocument{
		{Description: "Product X", Quantity: 1, Price: dec(t, "5.00"), LineTotal: dec(t, "5.00")},
		{Description: "Product Y", Quantity: 4, Price: dec(t, "2.50"), LineTotal: dec(t, "10.00")},
	})
	_, err = ucFallo.Update(context.Background(), doc, false)
	require.Error(t, err)

	inv, err := store.GetByNumber(context.Background(), "INV001")
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "John Doe", inv.CustomerName)

	details, err := store.GetDetailsByInvoiceID(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Product A", details[0].Description)
}

// ──────────────────────────────────────────────────────────────────────────────
// Update (PUT) y merge-patch (PATCH)
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_ReemplazoDeLineasEsIdempotente(t *testing.T) {
	uc, store := newUseCase()
	_, err := uc.Create(context.Background(), docINV001(t))
	require.NoError(t, err)

	doc := docINV001(t)
	doc.CustomerName = ptr("John Doe")
	doc.Details = ptr([]dto.InvoiceDetailDocument{
		{Description: "Product X", Quantity: 1, Price: dec(t, "5.00"), LineTotal: dec(t, "5.00")},
		{Description: "Product Y", Quantity: 4, Price: dec(t, "2.50"), LineTotal: dec(t, "10.00")},
	})

	// El resultado debe ser exactamente M líneas sin importar cuántas había.
	for i := 0; i < 3; i++ {
		resp, err := uc.Update(context.Background(), doc, false)
		require.NoError(t, err)
		require.Len(t, resp.Details, 2)
		assert.Equal(t, "Product X", resp.Details[0].Description)
		assert.Equal(t, "Product Y", resp.Details[1].Description)
	}

	inv, err := store.GetByNumber(context.Background(), "INV001")
	require.NoError(t, err)
	assert.Equal(t, 2, store.DetailCount(inv.ID))
}

func TestUpdate_CompletoExigeTodosLosCampos(t *testing.T) {
	uc, _ := newUseCase()
	_, err := uc.Create(context.Background(), docINV001(t))
	require.NoError(t, err)

	// PUT con solo invoice_number y customer_name: date y details faltan.
	doc := dto.InvoiceDocument{
		InvoiceNumber: ptr("INV001"),
		CustomerName:  ptr("Jane Roe"),
	}
	_, err = uc.Update(context.Background(), doc, false)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "date")
	assert.Contains(t, verr.Fields, "details")
}

func TestPatch_SinDetailsConservaLasLineas(t *testing.T) {
	uc, store := newUseCase()
	_, err := uc.Create(context.Background(), docINV001(t))
	require.NoError(t, err)

	doc := dto.InvoiceDocument{
		InvoiceNumber: ptr("INV001"),
		CustomerName:  ptr("Jane Roe"),
	}
	resp, err := uc.Update(context.Background(), doc, true)
	require.NoError(t, err)

	assert.Equal(t, "Jane Roe", resp.CustomerName)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "Product A", resp.Details[0].Description)

	inv, err := store.GetByNumber(context.Background(), "INV001")
	require.NoError(t, err)
	assert.Equal(t, 1, store.DetailCount(inv.ID))
}

func TestPatch_SinCustomerNameConservaElValor(t *testing.T) {
	uc, _ := newUseCase()
	_, err := uc.Create(context.Background(), docINV001(t))
	require.NoError(t, err)

	doc := dto.InvoiceDocument{
		InvoiceNumber: ptr("INV001"),
		Date:          ptr("2025-01-31"),
	}
	resp, err := uc.Update(context.Background(), doc, true)
	require.NoError(t, err)

	assert.Equal(t, "John Doe", resp.CustomerName)
	assert.Equal(t, "2025-01-31", resp.Date)
}

func TestPatch_DetailsVacioEliminaTodasLasLineas(t *testing.T) {
	uc, store := newUseCase()
	_, err := uc.Create(context.Background(), docINV001(t))
	require.NoError(t, err)

	doc := dto.InvoiceDocument{
		InvoiceNumber: ptr("INV001"),
		Details:       ptr([]dto.InvoiceDetailDocument{}),
	}
	resp, err := uc.Update(context.Background(), doc, true)
	require.NoError(t, err)

	assert.Empty(t, resp.Details)
	assert.Equal(t, "John Doe", resp.CustomerName)

	inv, err := store.GetByNumber(context.Background(), "INV001")
	require.NoError(t, err)
	assert.Equal(t, 0, store.DetailCount(inv.ID))
}

func TestPatch_NullExplicitoEsErrorDeValidacion(t *testing.T) {
	uc, store := newUseCase()
	_, err := uc.Create(context.Background(), docINV001(t))
	require.NoError(t, err)

	// null no es ausencia: el campo vino en el documento y se rechaza,
	// en lugar de conservar silenciosamente el valor actual.
	var doc dto.InvoiceDocument
	require.NoError(t, json.Unmarshal(
		[]byte(`{"invoice_number":"INV001","customer_name":null,"details":null}`), &doc))

	_, err = uc.Update(context.Background(), doc, true)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "customer_name")
	assert.Contains(t, verr.Fields, "details")

	inv, err := store.GetByNumber(context.Background(), "INV001")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", inv.CustomerName)
	assert.Equal(t, 1, store.DetailCount(inv.ID))
}

func TestCreate_NullExplicitoNoEsRequerido(t *testing.T) {
	uc, _ := newUseCase()

	var doc dto.InvoiceDocument
	require.NoError(t, json.Unmarshal(
		[]byte(`{"invoice_number":"INV001","customer_name":null,"date":"2024-11-12","details":[]}`), &doc))

	_, err := uc.Create(context.Background(), doc)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "customer_name")
	assert.Equal(t, []string{"este campo no puede ser nulo"}, verr.Fields["customer_name"])
}

func TestUpdate_SinInvoiceNumberNoIntentaBusqueda(t *testing.T) {
	uc, _ := newUseCase()

	for _, partial := range []bool{false, true} {
		doc := dto.InvoiceDocument{CustomerName: ptr("Jane Roe")}
		_, err := uc.Update(context.Background(), doc, partial)
		assert.ErrorIs(t, err, domain.ErrMissingInvoiceNumber)
	}

	// Cadena vacía cuenta como ausente, igual que en el contrato HTTP.
	doc := dto.InvoiceDocument{InvoiceNumber: ptr("")}
	_, err := uc.Update(context.Background(), doc, true)
	assert.ErrorIs(t, err, domain.ErrMissingInvoiceNumber)
}

func TestUpdate_NumeroDesconocidoEsNotFoundNoValidacion(t *testing.T) {
	uc, _ := newUseCase()

	// Documento además inválido: la búsqueda se resuelve antes de validar.
	doc := dto.InvoiceDocument{
		InvoiceNumber: ptr("NOEXISTE"),
		Date:          ptr("fecha-rota"),
	}
	_, err := uc.Update(context.Background(), doc, true)
	require.ErrorIs(t, err, domain.ErrNotFound)

	var verr *domain.ValidationError
	assert.NotErrorAs(t, err, &verr)
}
