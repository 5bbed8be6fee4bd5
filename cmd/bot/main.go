package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"craftbench.ai/internal/protocol"
	"craftbench.ai/internal/sim/crafting"
)

type step struct {
	msg    any
	expect string // recipe id expected in the resulting VIEW, "" for none
}

func selectSlot(k int) step {
	return step{msg: protocol.SelectMsg{Type: protocol.TypeSelect, ProtocolVersion: protocol.Version, Slot: k}}
}

func interact(cell int, button, expect string) step {
	return step{
		msg:    protocol.InteractMsg{Type: protocol.TypeInteract, ProtocolVersion: protocol.Version, Cell: cell, Button: button},
		expect: expect,
	}
}

func click(widget, button, expect string) step {
	return step{
		msg:    protocol.ClickMsg{Type: protocol.TypeClick, ProtocolVersion: protocol.Version, Widget: widget, Button: button},
		expect: expect,
	}
}

// script assumes the default starter inventory: slot 0 WOOD, slot 1 PLANKS.
var script = []step{
	selectSlot(0),
	interact(4, "PRIMARY", "planks_from_wood"),
	interact(4, "SECONDARY", ""),
	selectSlot(1),
	interact(1, "PRIMARY", ""),
	click(crafting.InputWidget(4), "PRIMARY", "sticks_from_planks"),
	click(crafting.InputWidget(1), "SECONDARY", ""),
	click(crafting.InputWidget(4), "SECONDARY", ""),
}

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "client name")
		resume = flag.String("resume", "", "resume token from a previous run (optional)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		ResumeToken:     *resume,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	msg, err := read(conn)
	if err != nil {
		logger.Fatalf("read WELCOME: %v", err)
	}
	var w protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &w); err != nil || w.Type != protocol.TypeWelcome {
		logger.Fatalf("expected WELCOME, got %s", msg)
	}
	logger.Printf("WELCOME session_id=%s resume_token=%s resumed=%v widgets=%d", w.SessionID, w.ResumeToken, w.Resumed, len(w.Widgets))

	v, err := readView(conn)
	if err != nil {
		logger.Fatalf("initial VIEW: %v", err)
	}
	logView(logger, v)
	if w.Resumed {
		return
	}

	for i, st := range script {
		if err := conn.WriteJSON(st.msg); err != nil {
			logger.Fatalf("step %d: send: %v", i, err)
		}
		v, err := readView(conn)
		if err != nil {
			logger.Fatalf("step %d: %v", i, err)
		}
		logView(logger, v)
		if v.RecipeID != st.expect {
			logger.Fatalf("step %d: recipe=%q want %q", i, v.RecipeID, st.expect)
		}
	}
	logger.Printf("script ok: %d steps", len(script))
}

func read(conn *websocket.Conn) ([]byte, error) {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	return msg, err
}

func readView(conn *websocket.Conn) (protocol.ViewMsg, error) {
	msg, err := read(conn)
	if err != nil {
		return protocol.ViewMsg{}, err
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.ViewMsg{}, err
	}
	switch base.Type {
	case protocol.TypeView:
		var v protocol.ViewMsg
		err := json.Unmarshal(msg, &v)
		return v, err
	case protocol.TypeError:
		var e protocol.ErrorMsg
		_ = json.Unmarshal(msg, &e)
		return protocol.ViewMsg{}, fmt.Errorf("server error %s: %s", e.Code, e.Message)
	default:
		return protocol.ViewMsg{}, fmt.Errorf("unexpected message type %q", base.Type)
	}
}

func logView(logger *log.Logger, v protocol.ViewMsg) {
	var g [crafting.GridCells]string
	for i, c := range v.Cells {
		g[i] = string(c.Item)
		if g[i] == "" {
			g[i] = "."
		}
	}
	logger.Printf("VIEW seq=%d grid=%v output=%s x%s recipe=%s", v.Seq, g, v.Output.Item, v.Output.Count, v.RecipeID)
}
