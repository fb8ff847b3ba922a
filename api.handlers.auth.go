package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// SignIn creates a session for the given email and returns its token.
// The owner id is derived from the email, so signing in again later hands
// back the same collection.
func (api *APIHandler) SignIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var signin SignInRequest
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	err := DecodeSignInRequestBody(r, &signin)
	if err != nil {
		api.logger.Error("failed to sign in", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the session", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = ValidateSignInRequestBody(&signin)
	if err != nil {
		api.logger.Error("failed to sign in", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the session", err.Error())
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	session, err := api.sessions.Create(r.Context(), signin.Email)
	if err != nil {
		api.logger.Error("failed to sign in", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to create the session", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to sign in", zap.String("user.id", session.UserID), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusCreated, "Session created successfully.", nil, session)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// SignOut terminates the caller's session and drops the cached collection
// state it owned.
func (api *APIHandler) SignOut(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	session, ok := GetSessionFromContext(r.Context())
	if !ok {
		errResp := NewAPIError(requestID, http.StatusUnauthorized, "no active session", EmptyData)
		if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if err := api.sessions.Delete(r.Context(), session.Token); err != nil {
		api.logger.Error("failed to sign out", zap.String("user.id", session.UserID), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to terminate the session", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	// No collection state survives a session change.
	api.collection.ForgetCollection(session.UserID)

	api.logger.Info("success to sign out", zap.String("user.id", session.UserID), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Session terminated successfully.", nil, EmptyData)
	if err := WriteResponse(r.Context(), w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
