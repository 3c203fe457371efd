package logger_test

import (
	"bytes"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/martpipe/martpipe/logger"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("Logger", func() {
	log := logger.NewLogger("test-service", "debug", true)

	capture := func(fn func()) string {
		buf := bytes.NewBufferString("")
		log.SetOutput(buf)
		fn()
		return buf.String()
	}

	It("tags every line with the service name", func() {
		out := capture(func() { log.Info("Testing") })
		Expect(out).To(ContainSubstring("service=test-service"))
	})

	It("logs Info at level info with the message intact", func() {
		out := capture(func() { log.Info("Testing") })
		Expect(out).To(ContainSubstring("level=info"))
		Expect(out).To(ContainSubstring("msg=Testing"))
	})

	It("logs Warn at level warning", func() {
		out := capture(func() { log.Warn("Testing") })
		Expect(out).To(ContainSubstring("level=warning"))
	})

	It("logs Error at level error with a stack trace", func() {
		out := capture(func() { log.Error("Testing") })
		Expect(out).To(ContainSubstring("level=error"))
		Expect(out).To(ContainSubstring("stackTrace"))
	})
})
