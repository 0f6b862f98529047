package telegram

const helpMsg = `Stock grant tracker. Your data lives in your Google Drive.

/connect <refresh_token> - connect Google Drive
/summary - portfolio summary
/loans - loan ledger
/grants - grants
/upcoming [days] - upcoming events
/price [value] - set the share price
/refresh_price - fetch the latest quote
/prices - price history
/rate <year> <rate> - set the interest rate of a year
/delete_rate <year>
/share <date> <delta> <label> - record a share event
/grant <year> <type> <shares> <price> <vestStart> <periods> [passed]
/delete_grant <id>
/loan <grantId> <purchase|tax> <amount> <rate> <due>
/delete_loan <id>
/refinance <date> <rate> <due> <loanId...>
/notifications on|off
/export - download the JSON document
/import - replace the document with a JSON file
/report - spreadsheet report
/reload - reload from Google Drive
/cancel`
