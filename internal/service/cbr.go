package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

const cbrServiceURL = "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"

// CBRClient получает ключевую ставку из веб-сервиса ЦБ РФ. Ставка
// используется в прогнозе накопительных целей.
type CBRClient struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewCBRClient(logger *logrus.Logger) *CBRClient {
	return &CBRClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// buildSOAPRequest формирует SOAP-запрос за ставками последних 30 дней
func buildSOAPRequest() string {
	fromDate := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	toDate := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
        <soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
            <soap12:Body>
                <KeyRate xmlns="http://web.cbr.ru/">
                    <fromDate>%s</fromDate>
                    <ToDate>%s</ToDate>
                </KeyRate>
            </soap12:Body>
        </soap12:Envelope>`, fromDate, toDate)
}

func (c *CBRClient) sendRequest(soapRequest string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, cbrServiceURL, bytes.NewBufferString(soapRequest))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка при выполнении HTTP-запроса: %v", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении ответа: %v", err)
	}

	return rawBody, nil
}

// parseKeyRate извлекает последнее значение ключевой ставки из XML-ответа
func parseKeyRate(rawBody []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("ошибка при разборе XML: %v", err)
	}

	krElements := doc.FindElements("//diffgram/KeyRate/KR")
	if len(krElements) == 0 {
		return 0, errors.New("данные по ключевой ставке не найдены")
	}

	rateElement := krElements[0].FindElement("./Rate")
	if rateElement == nil {
		return 0, errors.New("элемент <Rate> отсутствует в XML-ответе")
	}

	var rate float64
	if _, err := fmt.Sscanf(rateElement.Text(), "%f", &rate); err != nil {
		return 0, fmt.Errorf("ошибка при преобразовании ставки: %v", err)
	}

	return rate, nil
}

// GetKeyRate получает актуальную ключевую ставку ЦБ РФ
func (c *CBRClient) GetKeyRate() (float64, error) {
	c.logger.Debug("Запрос ключевой ставки ЦБ РФ")

	rawBody, err := c.sendRequest(buildSOAPRequest())
	if err != nil {
		c.logger.WithError(err).Error("Ошибка при отправке запроса в ЦБ РФ")
		return 0, err
	}

	rate, err := parseKeyRate(rawBody)
	if err != nil {
		c.logger.WithError(err).Error("Ошибка при разборе XML-ответа от ЦБ РФ")
		return 0, err
	}

	c.logger.WithField("key_rate", rate).Info("Ключевая ставка успешно получена")
	return rate, nil
}
