package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rvlab/rvcheck/pkg/fetc"
	"github.com/rvlab/rvcheck/pkg/report"
	"github.com/rvlab/rvcheck/pkg/session"
)

// API denotes a REST API for a measurement session
type API struct {
	controller *session.Controller
	writer     report.Writer
	router     *fiber.App
}

// New instantiates a new API
func New(c *session.Controller, w report.Writer, endpoint string) *API {

	api := API{
		controller: c,
		writer:     w,
		router:     fiber.New(),
	}

	// Setup routes
	api.router.Get("/status", api.handleStatus())
	api.router.Get("/report", api.handleReport())
	api.router.Get("/ports", api.handlePorts())
	api.router.Post("/measure", api.handleMeasure())
	api.router.Post("/auto/start", api.handleAutoStart())
	api.router.Post("/auto/stop", api.handleAutoStop())
	api.router.Post("/seek/:index", api.handleSeek())
	api.router.Post("/clear", api.handleClear())
	api.router.Post("/reset", api.handleReset())
	api.router.Post("/export", api.handleExport())

	// Start to listen in goroutine
	go func() {
		if err := api.router.Listen(endpoint); err != nil {
			panic(err)
		}
	}()

	return &api
}

type pointJSON struct {
	Index      int      `json:"index"`
	Resistance *float64 `json:"resistance,omitempty"`
	Voltage    *float64 `json:"voltage,omitempty"`
	Passed     bool     `json:"passed"`
}

type limitsJSON struct {
	RMin float64 `json:"r_min"`
	RMax float64 `json:"r_max"`
	VMin float64 `json:"v_min"`
	VMax float64 `json:"v_max"`
}

type statusJSON struct {
	Model     string      `json:"model"`
	Unit      string      `json:"unit"`
	Running   bool        `json:"running"`
	Cursor    int         `json:"cursor"`
	ElapsedMs int64       `json:"elapsed_ms"`
	Overall   bool        `json:"overall"`
	Limits    limitsJSON  `json:"limits"`
	Points    []pointJSON `json:"points"`
}

func (api *API) handleStatus() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {

		snap := api.controller.Snapshot()

		status := statusJSON{
			Model:     snap.Model,
			Unit:      string(snap.Unit),
			Running:   api.controller.Running(),
			Cursor:    snap.Cursor,
			ElapsedMs: api.controller.Elapsed().Milliseconds(),
			Overall:   snap.Overall(),
			Limits: limitsJSON{
				RMin: snap.Limits.R.Min,
				RMax: snap.Limits.R.Max,
				VMin: snap.Limits.V.Min,
				VMax: snap.Limits.V.Max,
			},
		}
		for i, p := range snap.Points {
			status.Points = append(status.Points, pointJSON{
				Index:      i,
				Resistance: p.Resistance,
				Voltage:    p.Voltage,
				Passed:     p.Passed,
			})
		}

		return c.JSON(status)
	}
}

func (api *API) handleReport() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(report.Render(api.writer.Format, api.controller.Snapshot()))
	}
}

func (api *API) handlePorts() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ports, err := fetc.ListPorts()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(ports)
	}
}

func (api *API) handleMeasure() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := api.controller.MeasureOne(); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func (api *API) handleAutoStart() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := api.controller.StartAuto(); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func (api *API) handleAutoStop() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		api.controller.StopAuto()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func (api *API) handleSeek() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		idx, err := c.ParamsInt("index")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid point index")
		}
		api.controller.Seek(idx)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func (api *API) handleClear() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		api.controller.Clear()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func (api *API) handleReset() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		api.controller.Reset()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func (api *API) handleExport() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		path, err := api.writer.ExportAuto(api.controller.Snapshot())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"path": path})
	}
}
