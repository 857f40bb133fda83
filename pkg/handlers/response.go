package handlers

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"

	"github.com/backsoul/quizdeck/pkg/models"
	"github.com/backsoul/quizdeck/pkg/services"
)

// respondWithJSON envía una respuesta JSON
func respondWithJSON(ctx *fasthttp.RequestCtx, statusCode int, response interface{}) {
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.SetStatusCode(statusCode)

	jsonData, err := json.Marshal(response)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"success": false, "error": "Error al serializar respuesta"}`)
		return
	}

	ctx.SetBody(jsonData)
}

// respondWithError envía una respuesta de error
func respondWithError(ctx *fasthttp.RequestCtx, statusCode int, message string) {
	respondWithJSON(ctx, statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithSuccess envía una respuesta exitosa
func respondWithSuccess(ctx *fasthttp.RequestCtx, data interface{}, message string) {
	respondWithJSON(ctx, fasthttp.StatusOK, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// statusFor traduce los errores del servicio a códigos HTTP
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownQuestion):
		return fasthttp.StatusBadRequest
	case errors.Is(err, services.ErrQuizUnavailable):
		return fasthttp.StatusNotFound
	default:
		return fasthttp.StatusInternalServerError
	}
}

// decodeBody lee el JSON del cuerpo de la petición
func decodeBody(ctx *fasthttp.RequestCtx, v interface{}) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return errors.New("cuerpo vacío")
	}
	return json.Unmarshal(body, v)
}

// NotFound responde 404 con el sobre estándar
func NotFound(ctx *fasthttp.RequestCtx) {
	respondWithError(ctx, fasthttp.StatusNotFound, "Recurso no encontrado: "+string(ctx.Path()))
}
