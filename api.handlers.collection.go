package main

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// GetCollection serves the caller's books partitioned by shelf. A store
// fetch failure is answered with the retained (possibly empty) state:
// read-path failures are logged, never surfaced as a blocking error.
func (api *APIHandler) GetCollection(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	session, _ := GetSessionFromContext(r.Context())

	state := api.collection.LoadCollection(r.Context(), session.UserID)
	total := state.Total()
	api.logger.Info("success to get collection", zap.String("user.id", session.UserID), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Collection fetched successfully.", &total, state)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// SearchCatalog proxies a free-text query to the external book catalog.
// Catalog failures degrade to an empty result list.
func (api *APIHandler) SearchCatalog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	query := r.URL.Query().Get("q")
	if query == "" {
		errResp := NewAPIError(requestID, http.StatusBadRequest, "query parameter q is required", EmptyData)
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	maxResults := api.config.Catalog.MaxResults
	if raw := r.URL.Query().Get("max"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			maxResults = parsed
		}
	}

	items := api.collection.SearchCatalog(r.Context(), query, maxResults)
	total := len(items)
	resp := GenericResponse(requestID, http.StatusOK, "Catalog searched successfully.", &total, items)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// AddBook accepts a catalog search item and persists it on the TO_READ
// shelf. A persist failure is surfaced with its cause: write-path errors
// are the user-visible tier.
func (api *APIHandler) AddBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var item SearchResultItem
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	session, _ := GetSessionFromContext(r.Context())

	err := DecodeAddBookRequestBody(r, &item)
	if err != nil {
		api.logger.Error("failed to add book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to add the book", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = ValidateAddBookRequestBody(&item)
	if err != nil {
		api.logger.Error("failed to add book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to add the book", err.Error())
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	record, err := api.collection.AddToCollection(r.Context(), session.UserID, item)
	if err != nil {
		api.logger.Error("failed to add book", zap.String("user.id", session.UserID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, err.Error(), EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to add book", zap.String("book.id", record.ID), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusCreated, "Book added to collection.", nil, record)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// MoveBook transfers a book between two distinct shelves. A book missing
// from the source shelf is a no-op, not an error, since the caller derives
// the source shelf from what it currently renders.
func (api *APIHandler) MoveBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var move MoveBookRequest
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	session, _ := GetSessionFromContext(r.Context())
	bookID := ps.ByName("id")

	err := DecodeMoveBookRequestBody(r, &move)
	if err != nil {
		api.logger.Error("failed to move book", zap.String("book.id", bookID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to move the book", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	from, to, err := ValidateMoveBookRequestBody(&move)
	if err != nil {
		api.logger.Error("failed to move book", zap.String("book.id", bookID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to move the book", err.Error())
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	record, moved, err := api.collection.MoveBook(r.Context(), session.UserID, bookID, from, to)
	if err != nil {
		api.logger.Error("failed to move book", zap.String("book.id", bookID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, err.Error(), EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if !moved {
		api.logger.Info("book not on source shelf, nothing to move",
			zap.String("book.id", bookID),
			zap.String("shelf.from", string(from)),
			zap.String("request.id", requestID),
		)
		resp := GenericResponse(requestID, http.StatusOK, "Book not found on source shelf. Nothing to move.", nil, EmptyData)
		if err = WriteResponse(r.Context(), w, resp); err != nil {
			api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	api.logger.Info("success to move book",
		zap.String("book.id", record.ID),
		zap.String("shelf.from", string(from)),
		zap.String("shelf.to", string(to)),
		zap.String("request.id", requestID),
	)
	resp := GenericResponse(requestID, http.StatusOK, "Book moved successfully.", nil, record)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
