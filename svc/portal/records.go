package portal

import (
	"net/http"

	"github.com/dmitrymomot/voicedesk/svc/aiconfig"
	"github.com/dmitrymomot/voicedesk/svc/conversation"
)

func (p *Portal) listAIConfigs(r *http.Request) Response {
	list, err := p.aiConfigs.List(r.Context(), tenantID(r))
	if err != nil {
		return JSONError(err)
	}
	return JSON(list)
}

func (p *Portal) createAIConfig(r *http.Request) Response {
	var in aiconfig.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		return JSONError(err)
	}
	c, err := p.aiConfigs.Create(r.Context(), tenantID(r), in)
	if err != nil {
		return JSONError(err)
	}
	return JSON(c, http.StatusCreated)
}

func (p *Portal) getAIConfig(r *http.Request) Response {
	id, err := pathID(r, "id")
	if err != nil {
		return JSONError(err)
	}
	c, err := p.aiConfigs.Get(r.Context(), tenantID(r), id)
	if err != nil {
		return JSONError(err)
	}
	return JSON(c)
}

func (p *Portal) updateAIConfig(r *http.Request) Response {
	id, err := pathID(r, "id")
	if err != nil {
		return JSONError(err)
	}
	var in aiconfig.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		return JSONError(err)
	}
	c, err := p.aiConfigs.Update(r.Context(), tenantID(r), id, in)
	if err != nil {
		return JSONError(err)
	}
	return JSON(c)
}

func (p *Portal) deleteAIConfig(r *http.Request) Response {
	id, err := pathID(r, "id")
	if err != nil {
		return JSONError(err)
	}
	if err := p.aiConfigs.Delete(r.Context(), tenantID(r), id); err != nil {
		return JSONError(err)
	}
	return noContent{}
}

func (p *Portal) startConversation(r *http.Request) Response {
	var in conversation.StartInput
	if err := decodeJSON(r, &in); err != nil {
		return JSONError(err)
	}
	c, err := p.conversations.Start(r.Context(), tenantID(r), in)
	if err != nil {
		return JSONError(err)
	}
	return JSON(c, http.StatusCreated)
}

type finishRequest struct {
	Status conversation.Status `json:"status"`
}

func (p *Portal) finishConversation(r *http.Request) Response {
	id, err := pathID(r, "id")
	if err != nil {
		return JSONError(err)
	}
	var req finishRequest
	if err := decodeJSON(r, &req); err != nil {
		return JSONError(err)
	}
	c, err := p.conversations.Finish(r.Context(), tenantID(r), id, req.Status)
	if err != nil {
		return JSONError(err)
	}
	return JSON(c)
}

func (p *Portal) listMessages(r *http.Request) Response {
	id, err := pathID(r, "id")
	if err != nil {
		return JSONError(err)
	}
	msgs, err := p.conversations.Messages(r.Context(), tenantID(r), id)
	if err != nil {
		return JSONError(err)
	}
	return JSON(msgs)
}

func (p *Portal) addMessage(r *http.Request) Response {
	id, err := pathID(r, "id")
	if err != nil {
		return JSONError(err)
	}
	var in conversation.MessageInput
	if err := decodeJSON(r, &in); err != nil {
		return JSONError(err)
	}
	m, err := p.conversations.AddMessage(r.Context(), tenantID(r), id, in)
	if err != nil {
		return JSONError(err)
	}
	return JSON(m, http.StatusCreated)
}
